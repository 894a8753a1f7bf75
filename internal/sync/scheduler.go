package sync

// Scheduler runs a set of coroutines one at a time until none of them can
// make progress anymore. Execution order is the order in which coroutines
// were created, which keeps scheduling deterministic across replays.
type Scheduler struct {
	coroutines []Coroutine
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// NewCoroutine starts a new coroutine and tracks it in this scheduler.
func (s *Scheduler) NewCoroutine(ctx Context, fn func(Context) error) {
	c := NewCoroutine(ctx, fn)
	c.SetCoroutineCreator(s)
	s.coroutines = append(s.coroutines, c)
}

// Execute resumes every coroutine in turn, repeating until a full round
// passes without any coroutine finishing or making progress.
func (s *Scheduler) Execute() error {
	for progress := true; progress; {
		progress = false

		for i := 0; i < len(s.coroutines); i++ {
			c := s.coroutines[i]

			c.Execute()

			if !c.Finished() {
				if c.Progress() {
					progress = true
				}
				continue
			}

			progress = true
			s.remove(i)
			i--

			if err := c.Error(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Scheduler) remove(i int) {
	s.coroutines[i] = nil
	s.coroutines = append(s.coroutines[:i], s.coroutines[i+1:]...)
}

func (s *Scheduler) RunningCoroutines() int {
	return len(s.coroutines)
}

// Exit aborts all still-blocked coroutines without running their remaining
// workflow code. Deferred functions still run.
func (s *Scheduler) Exit() {
	for _, c := range s.coroutines {
		c.Exit()
	}
}
