package models

type ControlPath struct {
	ID uint32 `path:"id" example:"9963776" doc:"Control ID"`
}

type ControlQueryRequest struct {
	ControlPath
	Class uint32 `query:"class" doc:"Control class, derived from the ID when 0"`
	Ext   bool   `query:"ext" doc:"Use the extended query"`
}

type ControlRangeData struct {
	Class        uint32 `json:"class" example:"9961472" doc:"Control class"`
	ID           uint32 `json:"id" example:"9963776" doc:"Control ID"`
	Type         string `json:"type" example:"integer" doc:"Value type"`
	Name         string `json:"name" example:"Brightness" doc:"Control name"`
	Minimum      int64  `json:"minimum" example:"0" doc:"Minimum value"`
	Maximum      int64  `json:"maximum" example:"255" doc:"Maximum value"`
	Step         uint64 `json:"step" example:"1" doc:"Value step"`
	DefaultValue int64  `json:"default_value" example:"128" doc:"Default value"`
	Flags        uint32 `json:"flags" example:"0" doc:"Control flags"`
}

type ControlRangeResponse struct {
	Body ControlRangeData
}

type MenuRequest struct {
	ControlPath
	Index uint32 `path:"index" example:"0" doc:"Menu item index"`
	Class uint32 `query:"class" doc:"Control class, derived from the ID when 0"`
}

type MenuItemData struct {
	Index uint32 `json:"index" example:"0" doc:"Menu item index"`
	Name  string `json:"name,omitempty" example:"Manual Mode" doc:"Menu item name"`
	Value int64  `json:"value,omitempty" doc:"Integer menu value"`
}

type MenuItemResponse struct {
	Body MenuItemData
}

type ControlValueData struct {
	ID    uint32 `json:"id" example:"9963776" doc:"Control ID"`
	Value int64  `json:"value" example:"128" doc:"Control value"`
}

type ControlValueResponse struct {
	Body ControlValueData
}

type SetControlRequest struct {
	ControlPath
	Body struct {
		Value int64 `json:"value" example:"128" doc:"Control value"`
	}
}

type ControlBatchData struct {
	Class    uint32             `json:"class" example:"9961472" doc:"Control class shared by every entry"`
	Controls []ControlValueData `json:"controls" minItems:"1" doc:"Control values"`
}

type ControlBatchRequest struct {
	Body ControlBatchData
}

type ControlBatchResponse struct {
	Body ControlBatchData
}

// ScenePath selects a scene mode in the URL.
type ScenePath struct {
	Mode uint32 `path:"mode" example:"8" doc:"Scene mode"`
}

type SceneQueryRequest struct {
	ScenePath
	ControlPath
	Class uint32 `query:"class" doc:"Control class, derived from the ID when 0"`
}

type SceneMenuRequest struct {
	ScenePath
	ControlPath
	Index uint32 `path:"index" example:"0" doc:"Menu item index"`
	Class uint32 `query:"class" doc:"Control class, derived from the ID when 0"`
}

type SceneBatchRequest struct {
	ScenePath
	Body ControlBatchData
}

type HalfPushRequest struct {
	Body struct {
		Enable bool `json:"enable" example:"true" doc:"Press (true) or release (false) the half-push"`
	}
}
