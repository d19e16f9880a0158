package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func sampleResources() []Resource {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.UTC)
	base := func(kind Kind, id string) Base {
		return Base{Model: kind, ID: id, CreatedAt: ts, UpdatedAt: ts.Add(time.Minute)}
	}
	return []Resource{
		&Workspace{Base: base(KindWorkspace, "wk_1"), Name: "API", SettingFollowRedirects: true, SettingRequestTimeout: 30},
		&Environment{Base: base(KindEnvironment, "ev_1"), WorkspaceID: "wk_1", Name: "Prod",
			Variables: []EnvironmentVariable{{Name: "host", Value: "example.com", Enabled: true}}},
		&Folder{Base: base(KindFolder, "fl_1"), WorkspaceID: "wk_1", Name: "Users", SortPriority: 1},
		&HttpRequest{Base: base(KindHttpRequest, "rq_1"), WorkspaceID: "wk_1", FolderID: ptr("fl_1"),
			Name: "List users", Method: "GET", URL: "https://${host}/users",
			Headers: []Header{{Name: "Accept", Value: "application/json", Enabled: true}}},
		&GrpcRequest{Base: base(KindGrpcRequest, "gr_1"), WorkspaceID: "wk_1", Name: "Ping", URL: "localhost:50051",
			Service: "health.Health", Method: "Check", Message: "{}"},
		&WebsocketRequest{Base: base(KindWebsocketRequest, "wr_1"), WorkspaceID: "wk_1", Name: "Echo", URL: "wss://echo"},
	}
}

func TestMarshalUnmarshal_AllKinds(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON} {
		for _, r := range sampleResources() {
			t.Run(string(format)+"/"+string(r.Kind()), func(t *testing.T) {
				data, err := Marshal(r, format)
				require.NoError(t, err)

				got, err := Unmarshal(data, format)
				require.NoError(t, err)
				assert.Equal(t, r.Kind(), got.Kind())
				assert.Equal(t, r.GetID(), got.GetID())
				assert.Equal(t, r.GetWorkspaceID(), got.GetWorkspaceID())
				assert.True(t, r.GetUpdatedAt().Equal(got.GetUpdatedAt()))

				again, err := Marshal(got, format)
				require.NoError(t, err)
				assert.Equal(t, string(data), string(again))
			})
		}
	}
}

func TestMarshal_YAMLIsBlockStyleWithDiscriminator(t *testing.T) {
	data, err := Marshal(sampleResources()[3], FormatYAML)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "model: http_request\n"))
	assert.Contains(t, text, "id: rq_1\n")
	assert.Contains(t, text, "folderId: fl_1\n")
	assert.NotContains(t, text, "{\"")
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := Unmarshal([]byte("id: x\nname: y\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrMissingModel)

	_, err = Unmarshal([]byte(`{"model":"cookie_jar","id":"cj_1"}`), FormatJSON)
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"model":"folder"}`), FormatJSON)
	assert.Error(t, err)

	_, err = Unmarshal([]byte("model: [unterminated"), FormatYAML)
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{}`), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]Format{
		"yaak.rq_1.yaml": FormatYAML,
		"folder.YML":     FormatYAML,
		"env.json":       FormatJSON,
	}
	for name, want := range cases {
		got, err := FormatForPath(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := FormatForPath("README.md")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatForPath("noext")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPayloadRoundTrip(t *testing.T) {
	for _, r := range sampleResources() {
		data, err := MarshalPayload(r)
		require.NoError(t, err)

		got, err := UnmarshalPayload(r.Kind(), data)
		require.NoError(t, err)
		assert.Equal(t, r.GetID(), got.GetID())

		a, _ := Marshal(r, FormatJSON)
		b, _ := Marshal(got, FormatJSON)
		assert.JSONEq(t, string(a), string(b))
	}
}
