// Package connection implements the push-channel connection manager.
//
// Two layers:
//   - Client: one WebSocket dial with heartbeat staleness detection
//   - Manager: the disconnected -> connecting -> connected state
//     machine; parses push frames and redials after any close or error
//     with a fixed delay until stopped
//
// Malformed frames are logged and dropped without tearing down the
// connection.
package connection
