package opmon

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/noahframe/noahframe/engine/nflog"
)

var (
	operationPool = sync.Pool{
		New: func() interface{} {
			return &Operation{}
		},
	}

	monitor = newMonitor()
)

// StartDump begins dumping operation statistics to stderr every interval.
// Called once at startup when op monitoring is enabled in the config.
func StartDump(interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		for {
			time.Sleep(interval)
			monitor.Dump()
		}
	}()
}

type opInfo struct {
	count         uint64
	totalDuration time.Duration
	maxDuration   time.Duration
}

type opMonitor struct {
	sync.Mutex
	opInfos map[string]*opInfo
}

func newMonitor() *opMonitor {
	return &opMonitor{
		opInfos: map[string]*opInfo{},
	}
}

func (m *opMonitor) record(opname string, duration time.Duration) {
	m.Lock()
	info := m.opInfos[opname]
	if info == nil {
		info = &opInfo{}
		m.opInfos[opname] = info
	}
	info.count += 1
	info.totalDuration += duration
	if duration > info.maxDuration {
		info.maxDuration = duration
	}
	m.Unlock()
}

func (m *opMonitor) Dump() {
	type namedInfo struct {
		name string
		info *opInfo
	}
	var opInfos map[string]*opInfo
	m.Lock()
	opInfos = m.opInfos
	m.opInfos = map[string]*opInfo{} // clear to be empty
	m.Unlock()

	var infos []namedInfo
	for name, info := range opInfos {
		infos = append(infos, namedInfo{name, info})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].name < infos[j].name
	})
	fmt.Fprint(os.Stderr, "=====================================================================================\n")
	for _, ni := range infos {
		fmt.Fprintf(os.Stderr, "%-30sx%-10d AVG %-10s MAX %-10s\n", ni.name, ni.info.count, ni.info.totalDuration/time.Duration(ni.info.count), ni.info.maxDuration)
	}
}

// Operation is a single monitored operation
type Operation struct {
	name      string
	startTime time.Time
}

// StartOperation creates a new operation
func StartOperation(operationName string) *Operation {
	op := operationPool.Get().(*Operation)
	op.name = operationName
	op.startTime = time.Now()
	return op
}

// Finish finishes the operation and records its duration
func (op *Operation) Finish(warnThreshold time.Duration) {
	takeTime := time.Now().Sub(op.startTime)
	monitor.record(op.name, takeTime)
	if takeTime >= warnThreshold {
		nflog.Warnf("opmon: operation %s takes %s > %s", op.name, takeTime, warnThreshold)
	}
	op.name = ""
	operationPool.Put(op)
}
