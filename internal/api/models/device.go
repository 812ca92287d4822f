package models

// Session models
type SessionData struct {
	ID      string `json:"id" example:"6f1c2f9e-4b1e-4d43-9f0e-0c7b1d1de2a1" doc:"Session identifier"`
	Opened  string `json:"opened" example:"2026-01-27T10:30:00Z" doc:"When the session was opened"`
	Handles int    `json:"handles" example:"1" doc:"Open sessions on the device"`
}

type SessionResponse struct {
	Body SessionData
}

type SessionCloseRequest struct {
	ID string `path:"id" doc:"Session identifier"`
}

// Device status models
type QueueData struct {
	Mode       string `json:"mode" example:"fifo" enum:"fifo,ring" doc:"Buffer mode"`
	Capacity   int    `json:"capacity" example:"4" doc:"Allocated containers"`
	Free       int    `json:"free" example:"1" doc:"Containers not holding a buffer"`
	Pending    int    `json:"pending" example:"2" doc:"Buffers queued for the transfer engine"`
	Filling    bool   `json:"filling" example:"true" doc:"A buffer is bound to the running transfer"`
	Done       int    `json:"done" example:"1" doc:"Completed buffers waiting to be dequeued"`
	Overwrites uint64 `json:"overwrites" example:"0" doc:"Completed buffers recycled in ring mode"`
}

type StreamStatusData struct {
	Stream    string     `json:"stream" example:"video" enum:"video,still" doc:"Stream type"`
	State     string     `json:"state" example:"transferring" enum:"idle,armed,transferring" doc:"Stream state"`
	Remaining int        `json:"remaining" example:"-1" doc:"Still captures left, -1 when unbounded"`
	Format    FormatData `json:"format" doc:"Current format"`
	Queue     QueueData  `json:"queue" doc:"Buffer queue statistics"`
	Waiting   bool       `json:"waiting" example:"false" doc:"A client is blocked in dequeue"`
	Sequence  uint32     `json:"sequence" example:"120" doc:"Sequence number of the last completed buffer"`
	Completed uint64     `json:"completed" example:"121" doc:"Buffers completed since open"`
}

type DeviceStatusData struct {
	Open    bool             `json:"open" example:"true" doc:"Whether the device has an open session"`
	Handles int              `json:"handles" example:"1" doc:"Open sessions"`
	Owner   string           `json:"owner,omitempty" example:"video" doc:"Stream holding the transfer engine"`
	Video   StreamStatusData `json:"video" doc:"Video stream"`
	Still   StreamStatusData `json:"still" doc:"Still stream"`
}

type DeviceStatusResponse struct {
	Body DeviceStatusData
}
