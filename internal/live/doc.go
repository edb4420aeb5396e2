// Package live pushes sync results to connected dashboards over WebSocket.
//
// A Hub keeps one bounded, growable send queue per client. Publish encodes a
// message once and queues it for every client subscribed to the topic without
// blocking; a client whose queue reaches the configured maximum is
// disconnected rather than slowing the publisher down.
//
// Clients pick topics with ?topics=prices,kills on connect and may send
//
//	{"action": "subscribe", "topics": ["gold"]}
//	{"action": "unsubscribe", "topics": ["kills"]}
//
// afterwards. Each client has a write pump, a ping loop and a read pump that
// enforces the pong deadline.
package live
