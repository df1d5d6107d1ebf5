package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/skybridge/types"
)

func TestAppendPreservesOrder(t *testing.T) {
	log := NewLog()

	log.Append(System("be helpful"))
	log.Append(User("hi"))
	log.Append(Assistant("hello"))

	turns := log.Snapshot()
	require.Len(t, turns, 3)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, RoleAssistant, turns[2].Role)
	assert.Equal(t, "hi", turns[1].Content)
}

func TestAppendStampsTime(t *testing.T) {
	log := NewLog()
	before := time.Now()

	log.Append(User("hi"))

	turns := log.Snapshot()
	require.Len(t, turns, 1)
	assert.False(t, turns[0].At.Before(before))

	// A caller-provided stamp is kept
	stamped := User("again")
	stamped.At = time.Unix(1700000000, 0)
	log.Append(stamped)
	assert.Equal(t, time.Unix(1700000000, 0), log.Snapshot()[1].At)
}

func TestSnapshotIsDetached(t *testing.T) {
	log := NewLog()
	log.Append(User("first"))

	snap := log.Snapshot()
	log.Append(User("second"))

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, log.Len())
}

func TestToolResultTurn(t *testing.T) {
	res := types.Result{Tool: "echo", OK: true, Output: "hi"}
	turn := ToolResult("call_1", res)

	assert.Equal(t, RoleTool, turn.Role)
	assert.Equal(t, "call_1", turn.CallID)
	require.NotNil(t, turn.Result)
	assert.Equal(t, "hi", turn.Result.Output)

	// The turn holds its own copy
	res.Output = "changed"
	assert.Equal(t, "hi", turn.Result.Output)
}

func TestLenGrowsMonotonically(t *testing.T) {
	log := NewLog()
	for i := 0; i < 10; i++ {
		prev := log.Len()
		log.Append(User(fmt.Sprintf("message %d", i)))
		assert.Equal(t, prev+1, log.Len())
	}
}

func TestConcurrentReadersDuringAppend(t *testing.T) {
	log := NewLog()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			log.Append(User("m"))
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				turns := log.Snapshot()
				assert.LessOrEqual(t, len(turns), 100)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, log.Len())
}
