package models

// StreamPath selects a stream in the URL.
type StreamPath struct {
	Stream string `path:"stream" enum:"video,still" example:"video" doc:"Stream type"`
}

type RequestBuffersRequest struct {
	StreamPath
	Body struct {
		Count int    `json:"count" minimum:"0" example:"4" doc:"Number of buffer containers; 0 releases the pool"`
		Mode  string `json:"mode,omitempty" enum:"fifo,ring" default:"fifo" doc:"Behaviour when the pending queue runs dry"`
	}
}

type RequestBuffersResponse struct {
	Body struct {
		Count int    `json:"count" example:"4" doc:"Allocated containers"`
		Mode  string `json:"mode" example:"fifo" doc:"Buffer mode"`
	}
}

type QueueBufferRequest struct {
	StreamPath
	Body struct {
		Index  uint32 `json:"index" example:"0" doc:"Client buffer index"`
		Length uint32 `json:"length" minimum:"1" example:"614400" doc:"Buffer size in bytes; the server allocates it"`
	}
}

type DequeueBufferRequest struct {
	StreamPath
	IncludeData bool `query:"data" doc:"Include the captured bytes (base64) in the response"`
}

type BufferData struct {
	Stream    string `json:"stream" example:"video" doc:"Stream type"`
	Index     uint32 `json:"index" example:"0" doc:"Client buffer index"`
	Length    uint32 `json:"length" example:"614400" doc:"Buffer size in bytes"`
	BytesUsed uint32 `json:"bytes_used" example:"614400" doc:"Bytes written by the transfer"`
	Error     bool   `json:"error" example:"false" doc:"The transfer that filled the buffer failed"`
	Sequence  uint32 `json:"sequence" example:"7" doc:"Per-stream completion sequence"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00.033Z" doc:"Completion time"`
	Data      []byte `json:"data,omitempty" doc:"Captured bytes"`
}

type BufferResponse struct {
	Body BufferData
}

type StartCaptureRequest struct {
	Body struct {
		Count int `json:"count" minimum:"0" example:"3" doc:"Number of stills to capture, 0 for no limit"`
	}
}

// StatusResponse is returned by operations that only change state.
type StatusResponse struct {
	Body struct {
		Stream string `json:"stream" example:"video" doc:"Stream type"`
		State  string `json:"state" example:"armed" doc:"Stream state after the operation"`
	}
}
