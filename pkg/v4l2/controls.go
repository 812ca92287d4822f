package v4l2

// Control classes.
const (
	CtrlClassUser   uint32 = 0x00980000
	CtrlClassCamera uint32 = 0x009a0000
)

// ControlType is the value type of a control.
type ControlType uint32

// Control types.
const (
	CtrlTypeInteger   ControlType = 1
	CtrlTypeBoolean   ControlType = 2
	CtrlTypeMenu      ControlType = 3
	CtrlTypeButton    ControlType = 4
	CtrlTypeInteger64 ControlType = 5
	CtrlTypeU8        ControlType = 0x0100
	CtrlTypeU16       ControlType = 0x0101
	CtrlTypeU32       ControlType = 0x0102
)

// Well-known control IDs.
const (
	CIDBrightness   uint32 = CtrlClassUser | 0x900
	CIDContrast     uint32 = CtrlClassUser | 0x901
	CIDSaturation   uint32 = CtrlClassUser | 0x902
	CIDHue          uint32 = CtrlClassUser | 0x903
	CIDExposure     uint32 = CtrlClassUser | 0x911
	CIDGain         uint32 = CtrlClassUser | 0x913
	CIDHFlip        uint32 = CtrlClassUser | 0x914
	CIDVFlip        uint32 = CtrlClassUser | 0x915
	CIDJPEGQuality  uint32 = CtrlClassCamera | 0x980
	CIDSceneMode    uint32 = CtrlClassCamera | 0x91a
	CIDExposureAuto uint32 = CtrlClassCamera | 0x901
)

// SceneMode selects which scene parameter set a scene control addresses.
type SceneMode uint32

// Scene modes.
const (
	SceneModeNone      SceneMode = 0
	SceneModeLandscape SceneMode = 6
	SceneModeNight     SceneMode = 8
	SceneModeSports    SceneMode = 11
)

// ControlRange describes the value range of a control.
type ControlRange struct {
	Class        uint32
	ID           uint32
	Type         ControlType
	Name         string
	Minimum      int64
	Maximum      int64
	Step         uint64
	DefaultValue int64
	Flags        uint32
}

// MenuItem is one entry of a menu control.
type MenuItem struct {
	Class uint32
	ID    uint32
	Index uint32
	Name  string
	Value int64
}

// ExtControl carries one control value.
type ExtControl struct {
	ID    uint32
	Value int64
}

// ExtControls is a batch of control values sharing one class.
type ExtControls struct {
	Class    uint32
	Controls []ExtControl
}
