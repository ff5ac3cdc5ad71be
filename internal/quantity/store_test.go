package quantity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MergeAndGet(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Merge(ProducerProject, Values{
		"design_flow_Ls":    Float(100),
		"raw_turbidity_NTU": Float(40),
	}))

	v, ok := s.Get("design_flow_Ls")
	require.True(t, ok)
	assert.Equal(t, Float(100), v)

	owner, ok := s.Owner("raw_turbidity_NTU")
	require.True(t, ok)
	assert.Equal(t, ProducerProject, owner)
	assert.Equal(t, []string{"design_flow_Ls", "raw_turbidity_NTU"}, s.Names())
}

func TestStore_RecomputeOverwritesOwnValue(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Merge("mixing", Values{"mixing.volume_m3": Float(1.5)}))
	require.NoError(t, s.Merge("mixing", Values{"mixing.volume_m3": Float(2.0)}))

	v, _ := s.Get("mixing.volume_m3")
	assert.Equal(t, Float(2.0), v)
}

func TestStore_MergeRejectsForeignOwner(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Merge("mixing", Values{"mixing.volume_m3": Float(1.5)}))

	err := s.Merge("flocculation", Values{
		"flocculation.volume_m3": Float(90),
		"mixing.volume_m3":       Float(3),
	})
	require.Error(t, err)
	assert.True(t, IsOwnershipError(err))
	assert.Contains(t, err.Error(), ErrCodeOwnership)

	// Nothing from the failed merge is applied.
	assert.False(t, s.Has("flocculation.volume_m3"))
	v, _ := s.Get("mixing.volume_m3")
	assert.Equal(t, Float(1.5), v)
}

func TestStore_MergeRejectsBadNames(t *testing.T) {
	s := NewStore()
	err := s.Merge("mixing", Values{"Mixing Volume": Float(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity name")
}

func TestStore_FlagLookup(t *testing.T) {
	s := NewStore()
	s.SetFlags("sedimentation", []Flag{
		Check("sedimentation", "overflow_rate", 45, Between(15, 30), "m3/m2/d"),
		Check("sedimentation", "hrt", 7200, Between(5400, 14400), "s"),
	})

	f, ok := s.Flag("sedimentation.overflow_rate")
	require.True(t, ok)
	assert.False(t, f.Pass)

	f, ok = s.Flag("sedimentation.hrt")
	require.True(t, ok)
	assert.True(t, f.Pass)

	_, ok = s.Flag("sedimentation.missing")
	assert.False(t, ok)
	_, ok = s.Flag("noqualifier")
	assert.False(t, ok)
}

func TestStore_StateDefaultsToPending(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StatusPending, s.State("mixing").Status)

	s.SetState(ModuleState{Module: "mixing", Status: StatusComplete, Seq: 3})
	assert.Equal(t, StatusComplete, s.State("mixing").Status)
	assert.Len(t, s.States(), 1)
}

func TestStore_CloneIsDeep(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Merge("flocculation", Values{"flocculation.gradients": Series{70, 50, 30}}))
	s.SetFlags("flocculation", []Flag{Check("flocculation", "gt", 5e4, Between(2e4, 1e5), "")})

	c := s.Clone()
	v, _ := c.Get("flocculation.gradients")
	v.(Series)[0] = 999

	orig, _ := s.Get("flocculation.gradients")
	assert.Equal(t, 70.0, orig.(Series)[0])
	assert.Len(t, c.Flags("flocculation"), 1)
}

func TestStore_SliceSkipsAbsent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Merge(ProducerProject, Values{"design_flow_Ls": Float(10)}))

	got := s.Slice([]string{"design_flow_Ls", "raw_ph"})
	assert.Equal(t, Values{"design_flow_Ls": Float(10)}, got)
}
