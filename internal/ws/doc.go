// Package ws streams the records list to browsers over WebSocket.
//
// A Hub sends the current list to each client as soon as it connects, again
// whenever Notify is called (the dispatcher calls it after every save or
// delete), and on a slow refresh ticker so a client that missed a push
// converges anyway.
//
// Message format:
//
//	{
//	  "event": "records",
//	  "data":  { /* same schema as GET /api/v1/records */ }
//	}
//
// The endpoint is mounted at /ws/records.
package ws
