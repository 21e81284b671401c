package collector

// Snapshots bundles the four collector snapshots for one cohort run. It
// crosses the process boundary as JSON.
type Snapshots struct {
	Memory MemorySnapshot `json:"memory"`
	Export ExportSnapshot `json:"export"`
	Trace  TraceSnapshot  `json:"trace"`
	CPU    CPUSnapshot    `json:"cpu"`
}

// Set owns one instance of each collector. A Set belongs to exactly one
// cohort executor for the duration of one run; sets are reset, never shared
// across cohorts, so no stale baseline leaks between runs.
type Set struct {
	Memory *Memory
	Export *Export
	Trace  *TraceValidator
	CPU    *CPU
}

func NewSet(requiredAttrs []string) *Set {
	return &Set{
		Memory: NewMemory(),
		Export: NewExport(),
		Trace:  NewTraceValidator(requiredAttrs),
		CPU:    NewCPU(),
	}
}

func (s *Set) StartAll() {
	s.Memory.Start()
	s.Export.Start()
	s.Trace.Start()
	s.CPU.Start()
}

// StopAll stops every collector and returns the combined snapshots plus the
// ordered memory sample sequence.
func (s *Set) StopAll() (Snapshots, []RuntimeSample) {
	memSnap, samples := s.Memory.Stop()
	return Snapshots{
		Memory: memSnap,
		Export: s.Export.Stop(),
		Trace:  s.Trace.Stop(),
		CPU:    s.CPU.Stop(),
	}, samples
}

func (s *Set) ResetAll() {
	s.Memory.Reset()
	s.Export.Reset()
	s.Trace.Reset()
	s.CPU.Reset()
}
