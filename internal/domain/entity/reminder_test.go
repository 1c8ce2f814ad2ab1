package entity

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "mealreminder/internal/pkg/errors"
)

func TestCreateLocal(t *testing.T) {
	r, err := CreateLocal("  Snack  ", TimeOfDay{Hour: 15, Minute: 30})
	require.NoError(t, err)

	assert.True(t, r.ID.IsLocal())
	assert.NotEmpty(t, r.ID.Token)
	assert.Equal(t, "Snack", r.Name)
	assert.Equal(t, TimeOfDay{Hour: 15, Minute: 30}, r.Time)
	assert.True(t, r.Enabled)
}

func TestCreateLocal_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   string
		time TimeOfDay
	}{
		{"empty name", "", TimeOfDay{Hour: 8}},
		{"whitespace name", " \t\n", TimeOfDay{Hour: 8}},
		{"hour too large", "Lunch", TimeOfDay{Hour: 24}},
		{"negative minute", "Lunch", TimeOfDay{Hour: 12, Minute: -1}},
		{"minute too large", "Lunch", TimeOfDay{Hour: 12, Minute: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CreateLocal(tt.in, tt.time)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestCreateLocal_FreshIDs(t *testing.T) {
	a, err := CreateLocal("A", TimeOfDay{Hour: 1})
	require.NoError(t, err)
	b, err := CreateLocal("A", TimeOfDay{Hour: 1})
	require.NoError(t, err)

	assert.False(t, a.ID.Equal(b.ID))
}

func TestReminderID_Equality(t *testing.T) {
	local := ReminderID{Scope: ScopeLocal, Token: "abc"}
	remote := NewRemoteID("abc")

	assert.False(t, local.Equal(remote), "local and remote ids must never be equal")
	assert.True(t, remote.Equal(NewRemoteID("abc")))
	assert.False(t, remote.Equal(NewRemoteID("abd")))
	assert.True(t, ReminderID{}.IsZero())
}

func TestReminderID_StringRoundTrip(t *testing.T) {
	for _, id := range []ReminderID{NewLocalID(), NewRemoteID("doc-1")} {
		parsed, err := ParseReminderID(id.String())
		require.NoError(t, err)
		assert.True(t, parsed.Equal(id))
	}
}

func TestParseReminderID_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", "remote:", "cloud:abc"} {
		_, err := ParseReminderID(s)
		assert.ErrorIs(t, err, appErrors.ErrValidation, s)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"15:30", TimeOfDay{15, 30}, false},
		{"7:05", TimeOfDay{7, 5}, false},
		{" 00:00 ", TimeOfDay{0, 0}, false},
		{"23:59", TimeOfDay{23, 59}, false},
		{"24:00", TimeOfDay{}, true},
		{"12:60", TimeOfDay{}, true},
		{"12:5", TimeOfDay{}, true},
		{"noon", TimeOfDay{}, true},
		{"ab:cd", TimeOfDay{}, true},
		{"123:00", TimeOfDay{}, true},
		{"+1:30", TimeOfDay{}, true},
		{"-0:30", TimeOfDay{}, true},
		{"1:+5", TimeOfDay{}, true},
		{"1:-5", TimeOfDay{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, appErrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_TimestampConversion(t *testing.T) {
	ts := TimeOfDay{Hour: 15, Minute: 30}.Timestamp()
	assert.Equal(t, time.Date(2000, 1, 1, 15, 30, 0, 0, time.UTC), ts)

	// The zone the store hands the instant back in does not matter.
	jst := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, TimeOfDay{Hour: 15, Minute: 30}, TimeOfDayFromTimestamp(ts.In(jst)))
}

func TestTimeOfDay_TimestampSurvivesDSTGap(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00-03:00 does not exist in New York on 2026-03-08.
	gap := time.Date(2026, 3, 8, 2, 30, 0, 0, ny)
	require.NotEqual(t, 2, gap.Hour())

	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m += 15 {
			want := TimeOfDay{Hour: h, Minute: m}
			ts := want.Timestamp()
			assert.Equal(t, want, TimeOfDayFromTimestamp(ts.In(ny)), want.String())
		}
	}
	assert.Equal(t, TimeOfDay{Hour: 2, Minute: 30}, TimeOfDayFromTimestamp(TimeOfDay{Hour: 2, Minute: 30}.Timestamp()))
}

func TestTimeOfDay_JSON(t *testing.T) {
	b, err := json.Marshal(Reminder{ID: NewRemoteID("x"), Name: "Dinner", Time: TimeOfDay{19, 5}, Enabled: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"remote:x","name":"Dinner","time":"19:05","enabled":true}`, string(b))

	var r Reminder
	require.NoError(t, json.Unmarshal(b, &r))
	assert.Equal(t, TimeOfDay{19, 5}, r.Time)
	assert.True(t, r.ID.Equal(NewRemoteID("x")))
}

func TestApply(t *testing.T) {
	base := func() *Reminder {
		return &Reminder{ID: NewRemoteID("1"), Name: "Lunch", Time: TimeOfDay{12, 0}, Enabled: true}
	}
	name := "Late lunch"
	tm := TimeOfDay{13, 15}
	off := false

	r := base()
	require.NoError(t, r.Apply(ReminderPatch{Name: &name, Time: &tm, Enabled: &off}))
	assert.Equal(t, "Late lunch", r.Name)
	assert.Equal(t, tm, r.Time)
	assert.False(t, r.Enabled)

	// A bad field rejects the whole patch.
	blank := "  "
	r = base()
	err := r.Apply(ReminderPatch{Name: &blank, Time: &tm})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, base(), r)

	bad := TimeOfDay{Hour: 25}
	r = base()
	err = r.Apply(ReminderPatch{Name: &name, Time: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, base(), r)
}

func TestSortByTime_Stable(t *testing.T) {
	rs := []*Reminder{
		{Name: "dinner", Time: TimeOfDay{19, 0}},
		{Name: "breakfast-a", Time: TimeOfDay{7, 30}},
		{Name: "lunch", Time: TimeOfDay{12, 0}},
		{Name: "breakfast-b", Time: TimeOfDay{7, 30}},
	}
	SortByTime(rs)

	var names []string
	for _, r := range rs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"breakfast-a", "breakfast-b", "lunch", "dinner"}, names)
}

func TestSchedulable(t *testing.T) {
	assert.True(t, (&Reminder{Enabled: true, Time: TimeOfDay{8, 0}}).Schedulable())
	assert.False(t, (&Reminder{Enabled: false, Time: TimeOfDay{8, 0}}).Schedulable())
	assert.False(t, (&Reminder{Enabled: true, Time: TimeOfDay{99, 0}}).Schedulable())
}
