// Package tcp 提供基于 TCP + yamux 的 raft 批量消息传输
//
// 每条出站连接是一个 TCP 连接上的 yamux 客户端会话，会话上只打开一个发送流；
// 每次 SendBatch 写出一个帧：
//
//	+------+-----------------+----------------------------+
//	| flag | uvarint(len)    | body (len 字节)             |
//	+------+-----------------+----------------------------+
//
// body 为 protobuf 线格式的批量消息，体积超过 CompressThreshold 时使用
// snappy 压缩并在 flag 中置位 flagSnappy。
//
// 接收端 Listener 对每个入站连接建立 yamux 服务端会话，接受流并逐帧解码，
// 将批量消息交给 interfaces.BatchHandler。超过 MaxFrameSize 的帧会关闭该流。
package tcp
