package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/videocore/internal/api/models"
	"github.com/smazurov/videocore/pkg/v4l2"
)

func (s *Server) registerControlRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "query-control",
		Method:      http.MethodGet,
		Path:        "/api/controls/{id}/query",
		Summary:     "Query Control",
		Description: "Range, type and default of a control",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.ControlQueryRequest) (*models.ControlRangeResponse, error) {
		class := controlClass(input.Class, input.ID)
		query := s.device.QueryControl
		if input.Ext {
			query = s.device.QueryExtControl
		}
		r, err := query(class, input.ID)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlRangeResponse{Body: toControlRange(r)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "query-menu",
		Method:      http.MethodGet,
		Path:        "/api/controls/{id}/menu/{index}",
		Summary:     "Query Menu",
		Description: "One entry of a menu control",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.MenuRequest) (*models.MenuItemResponse, error) {
		m, err := s.device.QueryMenu(controlClass(input.Class, input.ID), input.ID, input.Index)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.MenuItemResponse{Body: toMenuItem(m)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-control",
		Method:      http.MethodGet,
		Path:        "/api/controls/{id}",
		Summary:     "Get Control",
		Description: "Read a user class control",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.ControlPath) (*models.ControlValueResponse, error) {
		v, err := s.device.GetControl(input.ID)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlValueResponse{Body: models.ControlValueData{ID: input.ID, Value: v}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-control",
		Method:      http.MethodPut,
		Path:        "/api/controls/{id}",
		Summary:     "Set Control",
		Description: "Write a user class control",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SetControlRequest) (*models.ControlValueResponse, error) {
		if err := s.device.SetControl(input.ID, input.Body.Value); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlValueResponse{Body: models.ControlValueData{ID: input.ID, Value: input.Body.Value}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-ext-controls",
		Method:      http.MethodPost,
		Path:        "/api/controls/get",
		Summary:     "Get Controls",
		Description: "Read a batch of controls of one class. On failure the message names the first failing index.",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.ControlBatchRequest) (*models.ControlBatchResponse, error) {
		ctrls := toExtControls(input.Body)
		if err := s.device.GetExtControls(&ctrls); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlBatchResponse{Body: toControlBatch(ctrls)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-ext-controls",
		Method:      http.MethodPost,
		Path:        "/api/controls/set",
		Summary:     "Set Controls",
		Description: "Write a batch of controls of one class, stopping at the first failure",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.ControlBatchRequest) (*models.ControlBatchResponse, error) {
		if err := s.device.SetExtControls(toExtControls(input.Body)); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlBatchResponse{Body: input.Body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "query-scene-control",
		Method:      http.MethodGet,
		Path:        "/api/scenes/{mode}/controls/{id}/query",
		Summary:     "Query Scene Control",
		Description: "Range of a control within a scene mode parameter set",
		Tags:        []string{"scenes"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SceneQueryRequest) (*models.ControlRangeResponse, error) {
		r, err := s.device.QuerySceneControl(v4l2.SceneMode(input.Mode), controlClass(input.Class, input.ID), input.ID)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlRangeResponse{Body: toControlRange(r)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "query-scene-menu",
		Method:      http.MethodGet,
		Path:        "/api/scenes/{mode}/controls/{id}/menu/{index}",
		Summary:     "Query Scene Menu",
		Description: "One menu entry of a control within a scene mode",
		Tags:        []string{"scenes"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SceneMenuRequest) (*models.MenuItemResponse, error) {
		m, err := s.device.QuerySceneMenu(v4l2.SceneMode(input.Mode), controlClass(input.Class, input.ID), input.ID, input.Index)
		if err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.MenuItemResponse{Body: toMenuItem(m)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-scene-controls",
		Method:      http.MethodPost,
		Path:        "/api/scenes/{mode}/controls/get",
		Summary:     "Get Scene Controls",
		Description: "Read a batch of controls of a scene mode",
		Tags:        []string{"scenes"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SceneBatchRequest) (*models.ControlBatchResponse, error) {
		ctrls := toExtControls(input.Body)
		if err := s.device.GetSceneControls(v4l2.SceneMode(input.Mode), &ctrls); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlBatchResponse{Body: toControlBatch(ctrls)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-scene-controls",
		Method:      http.MethodPost,
		Path:        "/api/scenes/{mode}/controls/set",
		Summary:     "Set Scene Controls",
		Description: "Write a batch of controls of a scene mode, stopping at the first failure",
		Tags:        []string{"scenes"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SceneBatchRequest) (*models.ControlBatchResponse, error) {
		if err := s.device.SetSceneControls(v4l2.SceneMode(input.Mode), toExtControls(input.Body)); err != nil {
			return nil, mapDeviceError(err)
		}
		return &models.ControlBatchResponse{Body: input.Body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "half-push",
		Method:      http.MethodPost,
		Path:        "/api/halfpush",
		Summary:     "Half Push",
		Description: "Press or release the shutter half-push (focus and exposure lock)",
		Tags:        []string{"controls"},
		Errors:      []int{400, 401, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.HalfPushRequest) (*struct{}, error) {
		if err := s.device.DoHalfPush(input.Body.Enable); err != nil {
			return nil, mapDeviceError(err)
		}
		return nil, nil
	})
}
