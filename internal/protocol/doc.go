// Package protocol implements the line-oriented task protocol spoken
// between the coordinator and a worker.
//
// Every message is one UTF-8 line with pipe-separated fields:
//
//	TASK|<taskId>|<operation>|<arg>...        request
//	RESPONSE|<taskId>|OK|<payload>            success
//	RESPONSE|<taskId>|ERROR|<message>         operation failure
//	ERROR|<message>                           unparseable request
//
// The task id is an opaque token echoed back unchanged. Operations are
// CONSULTAR_SALDO (one account id) and TRANSFERIR_FONDOS (origin,
// destination, amount). An unknown operation is answered with an ERROR
// response; it never closes the connection.
//
// Dispatcher is the worker side. EncodeRequest and DecodeResponse are the
// client side used by taskctl and tests.
package protocol
