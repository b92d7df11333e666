package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplab/geoexport-api/internal/api"
)

func TestCreateExport_Queued(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, &testQueue{})

	w := f.do(t, http.MethodPost, "/exports", circleBody(), nil)

	require.Equal(t, http.StatusAccepted, w.Code)
	body := decodeBody[api.ExportResponse](t, w)
	assert.Equal(t, "queued", body.Status)
	assert.NotEmpty(t, body.JobID)
	assert.Empty(t, body.URL)
	assert.Equal(t, 0, f.engine.callCount())
}

func TestCreateExport_SynchronousFallback(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodPost, "/exports", circleBody(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[api.ExportResponse](t, w)
	assert.Equal(t, "success", body.Status)
	assert.Contains(t, body.URL, testDownloadBase+"/")
	assert.Equal(t, 1, f.engine.callCount())
}

func TestCreateExport_InvalidJSON(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodPost, "/exports", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateExport_ValidationFailure(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	body := circleBody()
	delete(body, "lat")
	w := f.do(t, http.MethodPost, "/exports", body, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Lat")
	assert.Equal(t, 0, f.engine.callCount())
}

func TestCreateBatch_PartialFailure(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	invalid := circleBody()
	delete(invalid, "radius")
	body := map[string]interface{}{
		"rows": []map[string]interface{}{
			circleBody(),
			invalid,
			{"lat": 10.0, "lon": 20.0, "radius": 1000, "mode": "circle"},
		},
	}

	w := f.do(t, http.MethodPost, "/exports/batch", body, nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[api.BatchResponse](t, w)
	assert.Len(t, resp.Results, 2)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 1, resp.Errors[0].Row)
}

func TestCreateBatch_AllRowsInvalid(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	body := map[string]interface{}{
		"rows": []map[string]interface{}{
			{"mode": "circle"},
			{"mode": "spiral"},
		},
	}

	w := f.do(t, http.MethodPost, "/exports/batch", body, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody[api.BatchResponse](t, w)
	assert.Empty(t, resp.Results)
	assert.Len(t, resp.Errors, 2)
}

func TestCreateBatch_Empty(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)

	w := f.do(t, http.MethodPost, "/exports/batch", map[string]interface{}{"rows": []interface{}{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
