package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	adactor "github.com/berfenger/sunspec2mqtt/internal/adapter/actor"
	"github.com/berfenger/sunspec2mqtt/internal/core/domain"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMaster(healthy bool) actor.ReceiveFunc {
	return func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.GetDeviceRequest:
			ctx.Respond(domain.GetDeviceResponse{
				Device: &sunspec_modbus.DeviceDescription{
					BaseAddress: 40000,
					Info:        &sunspec_modbus.DeviceInfo{Manufacturer: "Frostnews"},
					Models:      []sunspec_modbus.ModelSummary{{Index: 0, Id: 1, Description: "Common", Address: 40002, Length: 66}},
				},
			})
		case domain.GetModelsRequest:
			models := []domain.ModelState{
				{ModelSummary: sunspec_modbus.ModelSummary{Index: 0, Id: 1}},
				{ModelSummary: sunspec_modbus.ModelSummary{Index: 1, Id: 103}},
			}
			if msg.Index == nil {
				ctx.Respond(domain.GetModelsResponse{Models: models})
				return
			}
			if *msg.Index >= len(models) {
				ctx.Respond(domain.GetModelsResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: fmt.Errorf("%w: %d", adactor.ErrModelIndex, *msg.Index),
					},
				})
				return
			}
			ctx.Respond(domain.GetModelsResponse{Models: models[*msg.Index : *msg.Index+1]})
		}
	}
}

func testServer(t *testing.T, healthy bool) http.Handler {
	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	pid := as.Root.Spawn(actor.PropsFromFunc(fakeMaster(healthy)))
	s := &Server{rootContext: as.Root, masterActor: pid}
	return s.RegisterRoutes()
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)

	rec := get(testServer(t, true), "/healthcheck")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("health_check: OK", rec.Body.String())

	rec = get(testServer(t, false), "/healthcheck")
	assert.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestDevice(t *testing.T) {
	assert := assert.New(t)

	rec := get(testServer(t, true), "/device")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(40000.0, body["base_address"])
	assert.Contains(body, "bridge_version")
	assert.Len(body["models"], 1)
}

func TestModels(t *testing.T) {
	assert := assert.New(t)
	handler := testServer(t, true)

	rec := get(handler, "/models")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(all, 2)

	rec = get(handler, "/models/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var one map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(103.0, one["id"])

	assert.Equal(http.StatusNotFound, get(handler, "/models/5").Code)
	assert.Equal(http.StatusBadRequest, get(handler, "/models/abc").Code)
}

func TestVersion(t *testing.T) {
	rec := get(testServer(t, true), "/version")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "revision")
}
