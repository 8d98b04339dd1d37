// Copyright (c) 2024 The Alephium developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentin/alephium/alephium"
	"github.com/greentin/alephium/lvldb"
	"github.com/greentin/alephium/state"
)

func M(a ...interface{}) []interface{} {
	return a
}

func newStater(t *testing.T) *state.Stater {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.NewStater(db)
}

func ref(tag string) state.TxOutputRef {
	return state.TxOutputRef(alephium.Blake2b([]byte("ref"), []byte(tag)))
}

func cid(tag string) state.ContractId {
	return state.ContractId(alephium.Blake2b([]byte("contract"), []byte(tag)))
}

func asset(amount int64) *state.TxOutput {
	return &state.TxOutput{Amount: big.NewInt(amount), Data: []byte("asset")}
}

func contractOut(amount int64) *state.TxOutput {
	return &state.TxOutput{Contract: true, Amount: big.NewInt(amount)}
}

func TestAssetLifecycle(t *testing.T) {
	genesis := newStater(t).NewEmptyState()

	st, err := genesis.AddAsset(ref("a0"), asset(100))
	require.NoError(t, err)

	out, err := st.GetAsset(ref("a0"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), out.Amount)

	ok, err := st.ExistsOutput(ref("a0"))
	require.NoError(t, err)
	assert.True(t, ok)

	// overwrite is allowed, uniqueness is the caller's concern
	st, err = st.AddAsset(ref("a0"), asset(200))
	require.NoError(t, err)
	out, err = st.GetAsset(ref("a0"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), out.Amount)

	st, err = st.RemoveAsset(ref("a0"))
	require.NoError(t, err)
	_, err = st.GetAsset(ref("a0"))
	assert.True(t, state.IsNotFound(err))

	_, err = st.RemoveAsset(ref("a0"))
	assert.True(t, state.IsNotFound(err))
}

func TestGetAssetOnContractOutput(t *testing.T) {
	genesis := newStater(t).NewEmptyState()

	st, err := genesis.CreateContract(cid("c"), []byte("code"), nil, ref("c-out"), contractOut(1))
	require.NoError(t, err)

	_, err = st.GetAsset(ref("c-out"))
	assert.ErrorIs(t, err, state.ErrExpectedAsset)

	// the raw accessor still fetches it
	out, err := st.GetOutput(ref("c-out"))
	require.NoError(t, err)
	assert.True(t, out.Contract)

	// and AddAsset refuses contract outputs
	_, err = st.AddAsset(ref("x"), contractOut(1))
	assert.ErrorIs(t, err, state.ErrExpectedAsset)
}

func TestPersistedImmutable(t *testing.T) {
	genesis := newStater(t).NewEmptyState()

	st1, err := genesis.AddAsset(ref("a"), asset(1))
	require.NoError(t, err)
	st2, err := st1.RemoveAsset(ref("a"))
	require.NoError(t, err)

	// the older state still reads its own version
	out, err := st1.GetAsset(ref("a"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), out.Amount)
	_, err = st2.GetAsset(ref("a"))
	assert.True(t, state.IsNotFound(err))

	// genesis unchanged throughout
	assert.Equal(t, alephium.Bytes32{}, genesis.Roots().Outputs)
}

func TestContractLifecycle(t *testing.T) {
	genesis := newStater(t).NewEmptyState()
	code := []byte("shared contract code")

	st, err := genesis.CreateContract(cid("c1"), code, [][]byte{{1}}, ref("c1-out"), contractOut(10))
	require.NoError(t, err)

	// checked create rejects a taken id
	_, err = st.CreateContract(cid("c1"), code, nil, ref("other"), contractOut(1))
	assert.ErrorIs(t, err, state.ErrContractExists)

	// second contract deduplicates the code
	st, err = st.CreateContract(cid("c2"), code, [][]byte{{2}}, ref("c2-out"), contractOut(20))
	require.NoError(t, err)

	rec, err := st.GetCode(state.CodeHash(code))
	require.NoError(t, err)
	assert.Equal(t, M(code, uint64(2)), M(rec.Code, rec.RefCount))

	// update fields, keep output
	st, err = st.UpdateContractFields(cid("c1"), [][]byte{{9}})
	require.NoError(t, err)
	cs, err := st.GetContract(cid("c1"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{9}}, cs.Fields)
	assert.Equal(t, ref("c1-out"), cs.OutputRef)

	// move to a new output, keep fields
	st, err = st.UpdateContractOutput(cid("c1"), ref("c1-out2"), contractOut(11))
	require.NoError(t, err)
	cs, err = st.GetContract(cid("c1"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{9}}, cs.Fields)
	assert.Equal(t, ref("c1-out2"), cs.OutputRef)

	// removing one contract leaves the shared code behind
	st, err = st.RemoveContract(cid("c1"))
	require.NoError(t, err)
	_, err = st.GetContract(cid("c1"))
	assert.True(t, state.IsNotFound(err))
	_, err = st.GetOutput(ref("c1-out2"))
	assert.True(t, state.IsNotFound(err))

	rec, err = st.GetCode(state.CodeHash(code))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.RefCount)
	assert.Equal(t, code, rec.Code)

	// removing the last one deletes the record
	st, err = st.RemoveContract(cid("c2"))
	require.NoError(t, err)
	_, err = st.GetCode(state.CodeHash(code))
	assert.True(t, state.IsNotFound(err))

	_, err = st.RemoveContract(cid("c2"))
	assert.True(t, state.IsNotFound(err))
}

func TestPersistEquivalence(t *testing.T) {
	// the same operations through a Persisted chain and through
	// Cached+Persist must land on the same roots
	stater := newStater(t)
	genesis := stater.NewEmptyState()

	chain, err := genesis.AddAsset(ref("a"), asset(1))
	require.NoError(t, err)
	chain, err = chain.CreateContract(cid("c"), []byte("code"), nil, ref("c-out"), contractOut(2))
	require.NoError(t, err)
	chain, err = chain.AddAsset(ref("b"), asset(3))
	require.NoError(t, err)
	chain, err = chain.RemoveAsset(ref("a"))
	require.NoError(t, err)

	cached, err := genesis.Cached()
	require.NoError(t, err)
	require.NoError(t, cached.AddAsset(ref("a"), asset(1)))
	require.NoError(t, cached.CreateContract(cid("c"), []byte("code"), nil, ref("c-out"), contractOut(2)))
	require.NoError(t, cached.AddAsset(ref("b"), asset(3)))
	require.NoError(t, cached.RemoveAsset(ref("a")))

	persisted, err := cached.Persist()
	require.NoError(t, err)

	assert.Equal(t, chain.Roots(), persisted.Roots())
	assert.Equal(t, chain.StateHash(), persisted.StateHash())
}

func TestStagingRollbackScenario(t *testing.T) {
	// cached view holds asset a0; staging adds a1 and removes a0;
	// rollback leaves the cached view on {a0}
	genesis := newStater(t).NewEmptyState()
	base, err := genesis.AddAsset(ref("a0"), asset(1))
	require.NoError(t, err)

	cached, err := base.Cached()
	require.NoError(t, err)

	staging := cached.Staging()
	require.NoError(t, staging.AddAsset(ref("a1"), asset(2)))
	require.NoError(t, staging.RemoveAsset(ref("a0")))

	_, err = staging.GetAsset(ref("a1"))
	require.NoError(t, err)
	_, err = staging.GetAsset(ref("a0"))
	assert.True(t, state.IsNotFound(err))

	require.NoError(t, staging.Rollback())

	_, err = cached.GetAsset(ref("a0"))
	require.NoError(t, err)
	_, err = cached.GetAsset(ref("a1"))
	assert.True(t, state.IsNotFound(err))
}

func TestStagingCommitScenario(t *testing.T) {
	genesis := newStater(t).NewEmptyState()
	base, err := genesis.AddAsset(ref("a0"), asset(1))
	require.NoError(t, err)

	cached, err := base.Cached()
	require.NoError(t, err)

	staging := cached.Staging()
	require.NoError(t, staging.AddAsset(ref("a1"), asset(2)))
	require.NoError(t, staging.RemoveAsset(ref("a0")))
	require.NoError(t, staging.Commit())

	_, err = cached.GetAsset(ref("a1"))
	require.NoError(t, err)
	_, err = cached.GetAsset(ref("a0"))
	assert.True(t, state.IsNotFound(err))

	// and the committed mutations survive persist
	persisted, err := cached.Persist()
	require.NoError(t, err)
	_, err = persisted.GetAsset(ref("a1"))
	require.NoError(t, err)
	_, err = persisted.GetAsset(ref("a0"))
	assert.True(t, state.IsNotFound(err))
}

func TestRehydrateFromRoots(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	stater := state.NewStater(db)
	st, err := stater.NewEmptyState().AddAsset(ref("a"), asset(42))
	require.NoError(t, err)
	roots := st.Roots()

	// a fresh stater over the same store reopens the state at the
	// header roots
	reopened, err := state.NewStater(db).NewState(roots)
	require.NoError(t, err)
	out, err := reopened.GetAsset(ref("a"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), out.Amount)

	_, err = stater.NewState(state.Roots{Outputs: alephium.Bytes32{0xde, 0xad}})
	assert.Error(t, err, "unresolvable roots must fail eagerly")
}

func TestStateHash(t *testing.T) {
	r := state.Roots{
		Outputs:   alephium.Blake2b([]byte("out")),
		Contracts: alephium.Blake2b([]byte("ctr")),
		Code:      alephium.Blake2b([]byte("code")),
	}
	assert.Equal(t, alephium.Blake2b(r.Outputs.Bytes(), r.Contracts.Bytes()), r.StateHash())

	// the code root is not part of the block-state hash
	r2 := r
	r2.Code = alephium.Blake2b([]byte("other code"))
	assert.Equal(t, r.StateHash(), r2.StateHash())

	r3 := r
	r3.Outputs = alephium.Blake2b([]byte("other out"))
	assert.NotEqual(t, r.StateHash(), r3.StateHash())
}

func TestGetOutputs(t *testing.T) {
	genesis := newStater(t).NewEmptyState()

	st := genesis
	var err error
	refs := []state.TxOutputRef{ref("o1"), ref("o2"), ref("o3")}
	for i, r := range refs {
		st, err = st.AddAsset(r, asset(int64(i+1)))
		require.NoError(t, err)
	}

	entries, err := st.GetOutputs(nil, 0, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// scan by the first ref byte
	entries, err = st.GetOutputs(refs[0].Bytes()[:1], 0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, refs[0].Bytes()[0], e.Ref.Bytes()[0])
	}

	// predicate over decoded outputs
	entries, err = st.GetOutputs(nil, 0, func(_ state.TxOutputRef, out *state.TxOutput) bool {
		return out.Amount.Int64() >= 2
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// the asset scan skips contract outputs
	st, err = st.CreateContract(cid("c"), []byte("code"), nil, ref("c-out"), contractOut(9))
	require.NoError(t, err)
	entries, err = st.GetAssetOutputs(nil, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.Output.Contract)
	}
}

func TestGetOutputsOnLayers(t *testing.T) {
	// the scan is supported on cached and staging views, merging
	// pending entries over the persisted trie
	genesis := newStater(t).NewEmptyState()
	base, err := genesis.AddAsset(ref("p"), asset(1))
	require.NoError(t, err)

	cached, err := base.Cached()
	require.NoError(t, err)
	require.NoError(t, cached.AddAsset(ref("q"), asset(2)))

	staging := cached.Staging()
	require.NoError(t, staging.AddAsset(ref("r"), asset(3)))
	require.NoError(t, staging.RemoveAsset(ref("p")))

	entries, err := staging.GetOutputs(nil, 0, nil)
	require.NoError(t, err)
	got := map[state.TxOutputRef]int64{}
	for _, e := range entries {
		got[e.Ref] = e.Output.Amount.Int64()
	}
	assert.Equal(t, map[state.TxOutputRef]int64{
		ref("q"): 2,
		ref("r"): 3,
	}, got)
}
