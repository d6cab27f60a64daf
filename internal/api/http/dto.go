package http

import "othello-live/internal/game"

// CompanionRequest is the payload for /companion.
type CompanionRequest struct {
	Game  *game.Game `json:"game" binding:"required" swaggertype:"object"`
	Depth int        `json:"depth" binding:"omitempty,min=1"`
}

// CompanionResponse carries the suggested move as [x, y].
type CompanionResponse struct {
	Message [2]int `json:"message"`
	Code    int    `json:"code"`
}

// MessageResponse is the body of errors and plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int64  `json:"connections"`
	Cache       string `json:"cache"`
}
