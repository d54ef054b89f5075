package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRegisterNotify(t *testing.T) {
	payload := RegisterNotifyPayload{
		Name:          "svc-a",
		PrincipalID:   "p1",
		PrincipalHome: "n1",
		Meta:          map[string]string{"region": "us-east"},
	}

	data, err := Encode(MsgRegisterNotify, "n1", "", payload)
	require.NoError(t, err)

	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, MsgRegisterNotify, env.Type)
	assert.Equal(t, "n1", env.From)
	assert.NotEmpty(t, env.ID)

	got, err := DecodeRegisterNotify(env)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEncodeReusesCorrelationID(t *testing.T) {
	data, err := Encode(MsgSyncReq, "n1", "fixed-id", SyncReqPayload{})
	require.NoError(t, err)

	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", env.ID)
}

func TestEncodeMintsFreshCorrelationIDsWhenUnset(t *testing.T) {
	data1, err := Encode(MsgSyncReq, "n1", "", SyncReqPayload{})
	require.NoError(t, err)
	data2, err := Encode(MsgSyncReq, "n1", "", SyncReqPayload{})
	require.NoError(t, err)

	env1, err := DecodeEnvelope(data1)
	require.NoError(t, err)
	env2, err := DecodeEnvelope(data2)
	require.NoError(t, err)

	assert.NotEqual(t, env1.ID, env2.ID)
}

func TestSyncRespRoundTrip(t *testing.T) {
	entries := []Entry{
		{Name: "svc-a", PrincipalID: "p1", PrincipalHome: "n1"},
		{Name: "svc-b", PrincipalID: "p2", PrincipalHome: "n2", Meta: map[string]string{"k": "v"}},
	}
	data, err := Encode(MsgSyncResp, "n1", "corr-1", SyncRespPayload{Entries: entries})
	require.NoError(t, err)

	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", env.ID)

	got, err := DecodeSyncResp(env)
	require.NoError(t, err)
	assert.Equal(t, entries, got.Entries)
}

func TestDecodeRegisterNotifyOfWrongShapeLeavesFieldsEmpty(t *testing.T) {
	data, err := Encode(MsgUnregisterNotify, "n1", "", UnregisterNotifyPayload{Name: "svc-a"})
	require.NoError(t, err)
	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, MsgUnregisterNotify, env.Type)

	// Decoding the wrong payload type doesn't error (msgpack maps are
	// permissive), but the result must not silently look like valid data
	// for a field unregister_notify never carries.
	got, err := DecodeRegisterNotify(env)
	require.NoError(t, err)
	assert.Empty(t, got.PrincipalID)
}

func TestMsgTypeString(t *testing.T) {
	cases := map[MsgType]string{
		MsgSyncReq:         "sync_req",
		MsgSyncResp:        "sync_resp",
		MsgRegisterNotify:  "register_notify",
		MsgUnregisterNotify: "unregister_notify",
		MsgAddMetaNotify:   "add_meta_notify",
		MsgType(99):        "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, in.String())
	}
}
