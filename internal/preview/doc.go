// Package preview streams the live lamp configuration to browsers.
//
// The modem core publishes a snapshot every time a configuration packet is
// applied. Hub fans each snapshot out to every connected WebSocket client
// on /ws and keeps the latest one for GET /state. A slow client never
// blocks the publisher; it just misses intermediate snapshots.
package preview
