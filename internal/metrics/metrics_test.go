package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordClientRequestOutcome(t *testing.T) {
	ok := ClientRequestsTotal.WithLabelValues("doctors", "list", "success")
	failed := ClientRequestsTotal.WithLabelValues("doctors", "list", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordClientRequest("doctors", "list", time.Now(), nil)
	RecordClientRequest("doctors", "list", time.Now(), errors.New("timeout"))
	RecordClientRequest("doctors", "list", time.Now(), errors.New("timeout"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+2, testutil.ToFloat64(failed))
}

func TestRecordAPIRequestUsesStatusLabel(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues(http.MethodPost, "/api/patients", "201")
	before := testutil.ToFloat64(c)

	RecordAPIRequest(http.MethodPost, "/api/patients", http.StatusCreated, 3*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordListCache(t *testing.T) {
	c := ListCacheTotal.WithLabelValues("patients", "hit")
	before := testutil.ToFloat64(c)

	RecordListCache("patients", "hit")

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
