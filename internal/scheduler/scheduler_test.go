package scheduler

import "testing"

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("*/5 * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
}

func TestSchedulerAddJobInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("not a cron expression", func() {}); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
}
