package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	CatalogRebuildJob  = "catalog-rebuild"
	MetadataReindexJob = "metadata-reindex"
)

// RegisterAll registers the maintenance jobs with the manager.
func RegisterAll(jm *JobManager) {
	jm.Register(CatalogRebuildJob, "Rebuild catalog list", RunCatalogRebuild)
	jm.Register(MetadataReindexJob, "Refresh VNDB metadata", RunMetadataReindex)
}

// RunCatalogRebuild recomputes the list and its statistics from the entries.
func RunCatalogRebuild(app JobContext) error {
	list, err := app.Catalog().Rebuild(context.Background())
	if err != nil {
		return fmt.Errorf("rebuild catalog: %w", err)
	}
	log.Printf("Catalog rebuilt with %d entries", len(list.Items))
	return nil
}

// RunMetadataReindex starts an index job. The tasks themselves are
// processed by the index worker pool.
func RunMetadataReindex(app JobContext) error {
	status, err := app.Indexer().Start(context.Background())
	if err != nil {
		return fmt.Errorf("start index job: %w", err)
	}
	log.Printf("Index job %s queued %d tasks", status.JobID, status.Total)
	return nil
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleReindexJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func scheduleReindexJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Index.ScheduleHours
	if interval <= 0 {
		log.Println("Index schedule is 0, scheduled metadata refresh is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d hours.", MetadataReindexJob, interval)

	_, err := s.Every(interval).Hours().WaitForSchedule().Do(func() {
		log.Println("Scheduler is triggering job:", MetadataReindexJob)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if err := app.JobManager().RunJob(MetadataReindexJob, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", MetadataReindexJob, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", MetadataReindexJob, err)
	}
}
