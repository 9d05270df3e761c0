package services

import (
	"context"
	"fmt"

	"github.com/eventos-rio/app-guestlist/internal/logging"
	"github.com/eventos-rio/app-guestlist/internal/models"
	"github.com/eventos-rio/app-guestlist/internal/resilience"
	"go.uber.org/zap"
)

// NewRegistrationJobHandler adapts the registration service into the
// emergency queue's handler contract. A duplicate-key outcome counts as
// success: the guest's registration already landed through another path.
func NewRegistrationJobHandler(registrations *RegistrationService, tracker *resilience.ProcessingTracker, logger *logging.SafeLogger) resilience.JobHandler {
	return func(ctx context.Context, job resilience.EmergencyJob) error {
		payload, ok := job.Payload.(resilience.EmergencyPayload)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
		}
		if payload.Request == nil {
			return fmt.Errorf("job %s has no registration request", job.ID)
		}

		reg, err := registrations.CreateRegistration(ctx, payload.EventID, payload.Request)
		if err != nil {
			if err == models.ErrDuplicateGuest {
				logger.Info("deferred registration already present",
					zap.String("job_id", job.ID),
					zap.String("event_id", payload.EventID))
				tracker.Delete(models.RegistrationKey(payload.EventID, payload.Request.Email))
				return nil
			}
			return err
		}

		// Flip the in-flight entry to completed so replays of the same
		// submission return the confirmed registration.
		tracker.Complete(models.RegistrationKey(payload.EventID, payload.Request.Email), reg)

		logger.Info("deferred registration completed",
			zap.String("job_id", job.ID),
			zap.String("event_id", payload.EventID),
			zap.String("ticket_code", reg.TicketCode))
		return nil
	}
}
