package domain

import "time"

// ComputeElapsedSeconds floors the interval to whole seconds and never goes
// negative, even if the clock stepped backwards.
func ComputeElapsedSeconds(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / time.Second)
}

// RecordSession folds one closed run into the task. It is pure: the input
// task is not modified and the result shares no session storage with it.
// Each call is a distinct run, so repeating the same bounds counts twice.
func RecordSession(task Task, start, now time.Time) (Task, TaskSession) {
	end := now
	if end.Before(start) {
		end = start
	}
	session := TaskSession{
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Duration:  ComputeElapsedSeconds(start, end),
	}
	out := task.Clone()
	out.Sessions = append(out.Sessions, session)
	out.TimeSpent += session.Duration
	return out, session
}
