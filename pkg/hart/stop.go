package hart

// StopReason is the enumerated cause that ended a run-loop call.
// Non-negative values are orderly exits, negative values are failures.
type StopReason int

const (
	ExitSuccess           StopReason = 0  // guest signaled success
	InstLimitReached      StopReason = 1  // instruction budget consumed
	Wfi                   StopReason = 2  // wait-for-interrupt hit
	Pause                 StopReason = 3  // pause hint hit
	Ebreak                StopReason = 4  // breakpoint hit
	ExitFailure           StopReason = -1 // guest signaled failure
	Exception             StopReason = -2 // architectural exception raised
	UnpredictableBehavior StopReason = -3 // configuration-defined undefined behavior
)

// stopNone is the internal continue sentinel; it never escapes the run
// loop.
const stopNone StopReason = 0x7fffffff

func (r StopReason) String() string {
	switch r {
	case ExitSuccess:
		return "exit-success"
	case InstLimitReached:
		return "inst-limit-reached"
	case Wfi:
		return "wfi"
	case Pause:
		return "pause"
	case Ebreak:
		return "ebreak"
	case ExitFailure:
		return "exit-failure"
	case Exception:
		return "exception"
	case UnpredictableBehavior:
		return "unpredictable-behavior"
	}
	return "unknown"
}

// Exception cause codes, matching the architectural encoding.
const (
	CauseMisalignedFetch    = 0
	CauseFetchAccessFault   = 1
	CauseIllegalInstruction = 2
	CauseMisalignedLoad     = 4
	CauseLoadAccessFault    = 5
	CauseMisalignedStore    = 6
	CauseStoreAccessFault   = 7
	CauseEcallFromM         = 11
)
