package video

import "github.com/smazurov/videocore/pkg/v4l2"

func (d *Device) requireOpen(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checkOpen(op, 0)
}

// QueryControl returns the range of a control. 64-bit and compound types
// are only reported by QueryExtControl.
func (d *Device) QueryControl(class, id uint32) (v4l2.ControlRange, error) {
	const op = "queryctrl"
	r, err := d.QueryExtControl(class, id)
	if err != nil {
		return r, err
	}
	switch r.Type {
	case v4l2.CtrlTypeInteger64, v4l2.CtrlTypeU8, v4l2.CtrlTypeU16, v4l2.CtrlTypeU32:
		return v4l2.ControlRange{}, NewError(ErrCodeInvalidArgument, op, 0, "control type needs the extended query", nil)
	}
	return r, nil
}

// QueryExtControl returns the range of any control.
func (d *Device) QueryExtControl(class, id uint32) (v4l2.ControlRange, error) {
	const op = "query_ext_ctrl"
	if err := d.requireOpen(op); err != nil {
		return v4l2.ControlRange{}, err
	}
	r, err := d.sensor.ControlRange(class, id)
	return r, wrapErr(op, 0, err)
}

// QueryMenu returns one entry of a menu control.
func (d *Device) QueryMenu(class, id, index uint32) (v4l2.MenuItem, error) {
	const op = "querymenu"
	if err := d.requireOpen(op); err != nil {
		return v4l2.MenuItem{}, err
	}
	m, err := d.sensor.ControlMenu(class, id, index)
	return m, wrapErr(op, 0, err)
}

// GetControl reads a user class control.
func (d *Device) GetControl(id uint32) (int64, error) {
	ctrls := v4l2.ExtControls{
		Class:    v4l2.CtrlClassUser,
		Controls: []v4l2.ExtControl{{ID: id}},
	}
	if err := d.GetExtControls(&ctrls); err != nil {
		return 0, unwrapSingle(err)
	}
	return ctrls.Controls[0].Value, nil
}

// SetControl writes a user class control.
func (d *Device) SetControl(id uint32, value int64) error {
	ctrls := v4l2.ExtControls{
		Class:    v4l2.CtrlClassUser,
		Controls: []v4l2.ExtControl{{ID: id, Value: value}},
	}
	return unwrapSingle(d.SetExtControls(ctrls))
}

// GetExtControls reads every control of the batch in place. On failure the
// returned *ControlError names the first failing index; earlier entries hold
// their values.
func (d *Device) GetExtControls(ctrls *v4l2.ExtControls) error {
	const op = "g_ext_ctrls"
	if ctrls == nil {
		return NewError(ErrCodeInvalidArgument, op, 0, "nil controls", nil)
	}
	if err := d.requireOpen(op); err != nil {
		return err
	}
	for i := range ctrls.Controls {
		if err := d.sensor.GetControl(ctrls.Class, &ctrls.Controls[i]); err != nil {
			return &ControlError{Index: i, Err: wrapErr(op, 0, err)}
		}
	}
	return nil
}

// SetExtControls writes the batch in order and stops at the first failure.
func (d *Device) SetExtControls(ctrls v4l2.ExtControls) error {
	const op = "s_ext_ctrls"
	if err := d.requireOpen(op); err != nil {
		return err
	}
	for i, c := range ctrls.Controls {
		if err := d.sensor.SetControl(ctrls.Class, c); err != nil {
			return &ControlError{Index: i, Err: wrapErr(op, 0, err)}
		}
	}
	return nil
}

// QuerySceneControl returns the range of a control within a scene mode.
func (d *Device) QuerySceneControl(mode v4l2.SceneMode, class, id uint32) (v4l2.ControlRange, error) {
	const op = "query_ext_ctrl_scene"
	if err := d.requireOpen(op); err != nil {
		return v4l2.ControlRange{}, err
	}
	r, err := d.sensor.SceneControlRange(mode, class, id)
	return r, wrapErr(op, 0, err)
}

// QuerySceneMenu returns one menu entry of a control within a scene mode.
func (d *Device) QuerySceneMenu(mode v4l2.SceneMode, class, id, index uint32) (v4l2.MenuItem, error) {
	const op = "querymenu_scene"
	if err := d.requireOpen(op); err != nil {
		return v4l2.MenuItem{}, err
	}
	m, err := d.sensor.SceneControlMenu(mode, class, id, index)
	return m, wrapErr(op, 0, err)
}

// GetSceneControls reads scene parameters in place, like GetExtControls.
func (d *Device) GetSceneControls(mode v4l2.SceneMode, ctrls *v4l2.ExtControls) error {
	const op = "g_ext_ctrls_scene"
	if ctrls == nil {
		return NewError(ErrCodeInvalidArgument, op, 0, "nil controls", nil)
	}
	if err := d.requireOpen(op); err != nil {
		return err
	}
	for i := range ctrls.Controls {
		if err := d.sensor.GetSceneControl(mode, ctrls.Class, &ctrls.Controls[i]); err != nil {
			return &ControlError{Index: i, Err: wrapErr(op, 0, err)}
		}
	}
	return nil
}

// SetSceneControls writes scene parameters, like SetExtControls.
func (d *Device) SetSceneControls(mode v4l2.SceneMode, ctrls v4l2.ExtControls) error {
	const op = "s_ext_ctrls_scene"
	if err := d.requireOpen(op); err != nil {
		return err
	}
	for i, c := range ctrls.Controls {
		if err := d.sensor.SetSceneControl(mode, ctrls.Class, c); err != nil {
			return &ControlError{Index: i, Err: wrapErr(op, 0, err)}
		}
	}
	return nil
}

// DoHalfPush locks (enable) or releases the sensor's auto exposure, focus
// and white balance ahead of a still capture.
func (d *Device) DoHalfPush(enable bool) error {
	const op = "do_halfpush"
	if err := d.requireOpen(op); err != nil {
		return err
	}
	return wrapErr(op, 0, d.sensor.DoHalfPush(enable))
}

// unwrapSingle drops the index of a one-entry batch.
func unwrapSingle(err error) error {
	if ce, ok := err.(*ControlError); ok {
		return ce.Err
	}
	return err
}
