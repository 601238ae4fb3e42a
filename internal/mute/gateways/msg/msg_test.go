package msg

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_LineFraming(t *testing.T) {
	data, err := Encode(Request{Action: ActionCleanupUsers})
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(data, []byte("\n")))
	assert.Equal(t, 1, bytes.Count(data, []byte("\n")), "one message is one line")
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"action":"cleanupUsers"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionCleanupUsers, req.Action)

	_, err = ParseRequest([]byte(`{}`))
	assert.Error(t, err, "a request without an action is malformed")

	_, err = ParseRequest([]byte(`{"action":`))
	assert.Error(t, err)
}

func TestResponse_WireShape(t *testing.T) {
	data, err := Encode(OKCommunities([]string{"funny", "pics"}))
	require.NoError(t, err)
	line := string(data)

	assert.Contains(t, line, `"communities":["funny","pics"]`,
		"the subreddit cleanup list is called communities on the wire")
	assert.NotContains(t, line, "users")
	assert.NotContains(t, line, "keywords")
	assert.NotContains(t, line, "error")

	data, err = Encode(BadRequest("not a thread page"))
	require.NoError(t, err)
	line = string(data)
	assert.Contains(t, line, `"status":400`)
	assert.Contains(t, line, `"error":"not a thread page"`)
	assert.NotContains(t, line, "communities")
}

func TestResponse_EmptyResultOmitsList(t *testing.T) {
	data, err := Encode(OKUsers(nil))
	require.NoError(t, err)
	assert.Equal(t, `{"status":200}`, strings.TrimSpace(string(data)))
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"status":200,"users":["alice","bob"]}`))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, []string{"alice", "bob"}, resp.Users)

	resp, err = ParseResponse([]byte(`{"status":400,"error":"nope"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusBadRequest, resp.Status)
	assert.Equal(t, "nope", resp.Error)
}

func TestParseBadgeUpdate(t *testing.T) {
	upd, err := ParseBadgeUpdate([]byte(`{"action":"updateBadge","count":42}`))
	require.NoError(t, err)
	assert.Equal(t, 42, upd.Count)

	_, err = ParseBadgeUpdate([]byte(`{"action":"cleanupUsers","count":1}`))
	assert.Error(t, err, "badge updates must carry the updateBadge action")
}
