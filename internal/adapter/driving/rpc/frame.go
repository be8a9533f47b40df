// Package rpc is the websocket driving adapter. Clients send request frames
// naming an event and receive one envelope per request, matched by id.
package rpc

import "encoding/json"

// EventSyncBase mirrors a base and replies with its tree.
const EventSyncBase = "sync-base-req"

// Path is where the websocket endpoint is served.
const Path = "/rpc"

// Request is one inbound frame.
type Request struct {
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SyncBaseRequest is the data of a sync-base-req frame.
type SyncBaseRequest struct {
	AuthToken string `json:"authToken"`
	BaseID    string `json:"baseId"`
}
