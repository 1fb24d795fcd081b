package rigourapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPage(t *testing.T) {
	assert.Nil(t, CheckPage(0, 10))
	assert.Nil(t, CheckPage(500, 1))
	assert.Nil(t, CheckPage(0, MaxLimit))

	verr := CheckPage(-1, 0)
	require.NotNil(t, verr)
	assert.Equal(t, http.StatusUnprocessableEntity, verr.StatusCode)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "query.skip", verr.Fields[0].Field())
	assert.Equal(t, "query.limit", verr.Fields[1].Field())

	tooMany := CheckPage(0, MaxLimit+1)
	require.NotNil(t, tooMany)
	assert.Equal(t, "less_than_equal", tooMany.Fields[0].Type)
	assert.JSONEq(t,
		`{"detail":[{"loc":["query","limit"],"msg":"Input should be less than or equal to 100","type":"less_than_equal","input":"101"}]}`,
		string(tooMany.Body))
}

func TestQueryError(t *testing.T) {
	verr := QueryError("port", "abc", "Input should be a valid integer")
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "query.port", verr.Fields[0].Field())
	assert.Equal(t, "abc", verr.Fields[0].Input)
}
