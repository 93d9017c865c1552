package luxid

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recruitexport/internal/models"
)

func seedToken(kit *testKit, token string) {
	now := kit.clock.Now()
	kit.store.Put("test_user", &models.Credential{
		Principal: "test_user",
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(DefaultTokenTTL),
	})
}

func TestListEvents_WithCachedToken(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.eventsBody = `[
		{"E2": {"start_time": 1736929800, "end_time": 1736933400, "participants_url": "https://x/P2",
		        "custom": {"3333": {"value": {"k": {"value": "B2B"}}}}}},
		{"E1": {"start_time": 1, "end_time": 2, "participants_url": null}}
	]`
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")

	events, err := kit.client.ListEvents(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer mocked_token", api.lastAuthHeader())
	require.Zero(t, api.loginCount())

	require.Len(t, events, 2)
	require.Equal(t, "E2", events[0].ID)
	require.Equal(t, int64(1736929800), events[0].StartTime)
	require.Equal(t, int64(1736933400), events[0].EndTime)
	require.Equal(t, "https://x/P2", events[0].ParticipantsURL)
	require.JSONEq(t, `{"3333": {"value": {"k": {"value": "B2B"}}}}`, string(events[0].CustomFields))

	require.Equal(t, "E1", events[1].ID)
	require.False(t, events[1].HasParticipants())
	require.Nil(t, events[1].CustomFields)
}

func TestListEvents_ExpiredTokenIsRefreshed(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.tokens = []string{"new_mocked_token"}
	kit := newTestKit(srv.URL)
	seedToken(kit, "stale")
	kit.clock.Advance(DefaultTokenTTL + time.Second)

	_, err := kit.client.ListEvents(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, api.loginCount())
	require.Equal(t, "Bearer new_mocked_token", api.lastAuthHeader())
}

func TestListEvents_StatusFailure(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.eventsStatus = http.StatusBadGateway
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")

	events, err := kit.client.ListEvents(context.Background())
	require.Nil(t, events)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, ResourceEvents, fetchErr.Resource)
	require.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	require.Equal(t, "failed to fetch events: status 502", err.Error())
}

func TestListEvents_AuthFailureSkipsCall(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.loginStatus = http.StatusForbidden
	kit := newTestKit(srv.URL)

	_, err := kit.client.ListEvents(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Zero(t, api.eventsCalls)
}

func TestListEvents_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":          `nope`,
		"object root":       `{"E1": {}}`,
		"two keys":          `[{"E1": {"start_time": 1, "end_time": 2}, "E2": {}}]`,
		"scalar entry":      `[3]`,
		"missing start":     `[{"E1": {"end_time": 2}}]`,
		"string start_time": `[{"E1": {"start_time": "1", "end_time": 2}}]`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			api, srv := newFakeAPI(t)
			api.eventsBody = body
			kit := newTestKit(srv.URL)
			seedToken(kit, "mocked_token")

			_, err := kit.client.ListEvents(context.Background())
			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			require.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestListEvents_TransportFailure(t *testing.T) {
	_, srv := newFakeAPI(t)
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")
	srv.Close()

	_, err := kit.client.ListEvents(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Zero(t, fetchErr.StatusCode)
}

func TestListParticipants_PreservesOrder(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.participants["/participants/123"] = `{"z": {"answers": {}}, "a": {"answers": {}}, "m": {}}`
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")

	participants, err := kit.client.ListParticipants(context.Background(), srv.URL+"/participants/123")
	require.NoError(t, err)
	require.Equal(t, "Bearer mocked_token", api.lastAuthHeader())

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"z", "a", "m"}, ids)
	require.JSONEq(t, `{"answers": {}}`, string(participants[0].Raw))
}

func TestListParticipants_EmptyArray(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.participants["/participants/1"] = `[]`
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")

	participants, err := kit.client.ListParticipants(context.Background(), srv.URL+"/participants/1")
	require.NoError(t, err)
	require.Empty(t, participants)
}

func TestListParticipants_Failure(t *testing.T) {
	api, srv := newFakeAPI(t)
	api.participantsStatus = http.StatusInternalServerError
	kit := newTestKit(srv.URL)
	seedToken(kit, "mocked_token")

	url := srv.URL + "/participants/123"
	_, err := kit.client.ListParticipants(context.Background(), url)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, ResourceParticipants, fetchErr.Resource)
	require.Equal(t, url, fetchErr.URL)
	require.Equal(t, "failed to fetch participants from "+url+": status 500", err.Error())
}
