package id

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsTimeOrdered(t *testing.T) {
	a := New()
	time.Sleep(2 * time.Millisecond)
	b := New()

	assert.Equal(t, uuid.Version(7), a.Version())
	assert.Less(t, a.String(), b.String())
	assert.WithinDuration(t, time.Now(), Time(b), time.Second)
}

func TestParse(t *testing.T) {
	v := New()
	got, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Parse("not-a-uuid")
	assert.ErrorContains(t, err, "not-a-uuid")
}

func TestTime_NonV7(t *testing.T) {
	assert.True(t, Time(uuid.New()).IsZero())
	assert.True(t, IsNil(Nil()))
}
