package wire

import (
	"encoding/json"
	"testing"

	"github.com/kestrel-render/kestrel/lifecycle"
	"github.com/stretchr/testify/require"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	s := NewControlServer()
	s.Handle("createDisplay", func(params json.RawMessage) (any, error) {
		var p CreateDisplayParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return CreateDisplayResult{DisplayID: 1}, nil
	})

	raw, err := json.Marshal(CreateDisplayParams{Config: DisplayConfig{Width: 640, Height: 480}})
	require.NoError(t, err)

	resp := s.dispatch(Request{ID: 1, Method: "createDisplay", Params: raw})
	require.Empty(t, resp.Error)

	var result CreateDisplayResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.EqualValues(t, 1, result.DisplayID)
}

func TestDispatchUnknownMethod(t *testing.T) {
	s := NewControlServer()
	resp := s.dispatch(Request{ID: 2, Method: "doesNotExist"})
	require.NotEmpty(t, resp.Error)
}

func TestFromLifecycleEventEncodesStateChange(t *testing.T) {
	ev := FromLifecycleEvent(lifecycle.Event{
		Kind:    lifecycle.SceneStateChanged,
		SceneID: 7,
		State:   lifecycle.Ready,
	})
	require.Equal(t, EventSceneStateChanged, ev.Kind)
	var data struct {
		SceneID uint64 `json:"sceneId"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	require.EqualValues(t, 7, data.SceneID)
	require.Equal(t, "Ready", data.State)
}
