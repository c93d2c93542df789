package services

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/models"
)

// PartRequest is one spare-part line in an assignment request.
type PartRequest struct {
	PartID   uint `json:"part_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// StockShortage describes one part that could not satisfy a request.
// INSUFFICIENT_STOCK carries every shortage, not just the first.
type StockShortage struct {
	PartID    uint   `json:"part_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// CompletionResult reports the state after a mechanic finishes their work.
type CompletionResult struct {
	RemainingCount        int  `json:"remaining_count"`
	JobcardReadyForReview bool `json:"jobcard_ready_for_review"`
}

// ApprovalResult reports the outcome of a service-advisor approval.
type ApprovalResult struct {
	Jobcard        *models.Jobcard `json:"jobcard"`
	FreedMechanics []uint          `json:"freed_mechanics"`
}

// AssignMechanics replaces the mechanic set on a jobcard. Newly-added
// mechanics must be active and Available; mechanics already on this jobcard
// are kept as-is so resubmitting the same set is a no-op. Removed mechanics
// are released back to Available unless other active jobcards hold them.
func AssignMechanics(db *gorm.DB, jobcardID uint, mechanicIDs []uint) (*models.Jobcard, error) {
	if len(mechanicIDs) == 0 {
		return nil, NewWorkflowError(CodeValidationError, "at least one mechanic id is required")
	}

	var jobcard models.Jobcard
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&jobcard, jobcardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "jobcard not found")
			}
			return err
		}
		if !jobcard.IsActive() {
			return NewWorkflowError(CodeInvalidTransition,
				fmt.Sprintf("jobcard is %s and no longer accepts assignments", jobcard.Status))
		}
		if err := syncMechanics(tx, &jobcard, mechanicIDs); err != nil {
			return err
		}
		if jobcard.Status == models.JobcardOpen {
			if err := tx.Model(&jobcard).Update("status", models.JobcardInProgress).Error; err != nil {
				return err
			}
			jobcard.Status = models.JobcardInProgress
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &jobcard, nil
}

// syncMechanics computes the symmetric difference against the current
// assignment rows and applies it: insert added, delete removed, flip
// availability on both sides. Runs inside the caller's transaction.
func syncMechanics(tx *gorm.DB, jobcard *models.Jobcard, mechanicIDs []uint) error {
	newSet := make(map[uint]bool, len(mechanicIDs))
	for _, id := range mechanicIDs {
		newSet[id] = true
	}

	var current []models.MechanicAssignment
	if err := tx.Where("jobcard_id = ?", jobcard.ID).Find(&current).Error; err != nil {
		return err
	}
	currentSet := make(map[uint]bool, len(current))
	for _, a := range current {
		currentSet[a.MechanicID] = true
	}

	var added, removed []uint
	for id := range newSet {
		if !currentSet[id] {
			added = append(added, id)
		}
	}
	for id := range currentSet {
		if !newSet[id] {
			removed = append(removed, id)
		}
	}

	// Only newly-added mechanics are checked for availability: mechanics
	// already on this jobcard are Busy with exactly this work.
	if len(added) > 0 {
		var mechanics []models.Mechanic
		if err := tx.Where("id IN ?", added).Find(&mechanics).Error; err != nil {
			return err
		}
		found := make(map[uint]*models.Mechanic, len(mechanics))
		for i := range mechanics {
			found[mechanics[i].ID] = &mechanics[i]
		}
		var unavailable []uint
		for _, id := range added {
			m, ok := found[id]
			if !ok || !m.IsActive || m.Availability != models.MechanicAvailable {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return NewWorkflowError(CodeMechanicUnavailable,
				"one or more mechanics are not available").WithDetails(map[string]interface{}{
				"mechanic_ids": unavailable,
			})
		}

		for _, id := range added {
			assignment := models.MechanicAssignment{
				JobcardID:  jobcard.ID,
				MechanicID: id,
				AssignedAt: timeNow(),
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Mechanic{}).Where("id = ?", id).
				Update("availability", models.MechanicBusy).Error; err != nil {
				return err
			}
		}
	}

	if len(removed) > 0 {
		if err := tx.Where("jobcard_id = ? AND mechanic_id IN ?", jobcard.ID, removed).
			Delete(&models.MechanicAssignment{}).Error; err != nil {
			return err
		}
		for _, id := range removed {
			if _, err := releaseMechanicIfIdle(tx, id); err != nil {
				return err
			}
		}
	}

	return recomputeReadiness(tx, jobcard)
}

// recomputeReadiness re-derives the ready_for_review status from the open
// assignment count after the assignment set changed. The jobcard is
// ready_for_review exactly when every currently-assigned mechanic has
// completed: adding an open assignment reopens a ready jobcard, and
// removing the last open one closes the remaining completed set.
func recomputeReadiness(tx *gorm.DB, jobcard *models.Jobcard) error {
	if jobcard.Status != models.JobcardInProgress && jobcard.Status != models.JobcardReadyForReview {
		return nil
	}

	var total, open int64
	if err := tx.Model(&models.MechanicAssignment{}).
		Where("jobcard_id = ?", jobcard.ID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.MechanicAssignment{}).
		Where("jobcard_id = ? AND completed_at IS NULL", jobcard.ID).Count(&open).Error; err != nil {
		return err
	}

	if jobcard.Status == models.JobcardReadyForReview && open > 0 {
		if err := tx.Model(jobcard).Updates(map[string]interface{}{
			"status":       models.JobcardInProgress,
			"completed_at": nil,
		}).Error; err != nil {
			return err
		}
		jobcard.Status = models.JobcardInProgress
		jobcard.CompletedAt = nil
		return nil
	}
	if jobcard.Status == models.JobcardInProgress && total > 0 && open == 0 {
		now := timeNow()
		if err := tx.Model(jobcard).Updates(map[string]interface{}{
			"status":       models.JobcardReadyForReview,
			"completed_at": &now,
		}).Error; err != nil {
			return err
		}
		jobcard.Status = models.JobcardReadyForReview
		jobcard.CompletedAt = &now
	}
	return nil
}

// releaseMechanicIfIdle flips a mechanic back to Available when they hold
// no open assignment on any jobcard still in an active status. Returns
// whether the mechanic was freed.
func releaseMechanicIfIdle(tx *gorm.DB, mechanicID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.MechanicAssignment{}).
		Joins("JOIN jobcards ON jobcards.id = mechanic_assignments.jobcard_id").
		Where("mechanic_assignments.mechanic_id = ?", mechanicID).
		Where("mechanic_assignments.completed_at IS NULL").
		Where("jobcards.status IN ?", models.ActiveJobcardStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	res := tx.Model(&models.Mechanic{}).
		Where("id = ? AND availability = ?", mechanicID, models.MechanicBusy).
		Update("availability", models.MechanicAvailable)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AssignSpareParts replaces the parts on a jobcard. Stock is moved by the
// per-part quantity delta against what this jobcard already consumed, so
// reassigning the same list never double-decrements. Every short part is
// reported in one INSUFFICIENT_STOCK error and nothing is written.
func AssignSpareParts(db *gorm.DB, jobcardID uint, parts []PartRequest) (*models.Jobcard, error) {
	requested := make(map[uint]int, len(parts))
	for _, p := range parts {
		if p.Quantity <= 0 {
			return nil, NewWorkflowError(CodeValidationError, "part quantity must be positive")
		}
		requested[p.PartID] += p.Quantity
	}

	var jobcard models.Jobcard
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&jobcard, jobcardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "jobcard not found")
			}
			return err
		}
		if !jobcard.IsActive() {
			return NewWorkflowError(CodeInvalidTransition,
				fmt.Sprintf("jobcard is %s and no longer accepts assignments", jobcard.Status))
		}
		return syncSpareParts(tx, &jobcard, requested)
	})
	if err != nil {
		return nil, err
	}
	return &jobcard, nil
}

// syncSpareParts applies a delta-based stock movement and rewrites the
// assignment rows with price snapshots. Runs inside the caller's transaction.
func syncSpareParts(tx *gorm.DB, jobcard *models.Jobcard, requested map[uint]int) error {
	var current []models.SparePartAssignment
	if err := tx.Where("jobcard_id = ?", jobcard.ID).Find(&current).Error; err != nil {
		return err
	}
	applied := make(map[uint]int, len(current))
	for _, a := range current {
		applied[a.SparePartID] = a.Quantity
	}

	// Union of old and new part ids: removed parts get their stock back.
	ids := make([]uint, 0, len(requested)+len(applied))
	seen := make(map[uint]bool)
	for id := range requested {
		ids = append(ids, id)
		seen[id] = true
	}
	for id := range applied {
		if !seen[id] {
			ids = append(ids, id)
		}
	}

	var catalog []models.SparePart
	if err := tx.Where("id IN ?", ids).Find(&catalog).Error; err != nil {
		return err
	}
	partsByID := make(map[uint]*models.SparePart, len(catalog))
	for i := range catalog {
		partsByID[catalog[i].ID] = &catalog[i]
	}

	var shortages []StockShortage
	for id, qty := range requested {
		part, ok := partsByID[id]
		if !ok || !part.IsActive {
			return NewWorkflowError(CodeNotFound,
				fmt.Sprintf("spare part %d does not exist or is inactive", id))
		}
		delta := qty - applied[id]
		if delta > 0 && part.StockQuantity < delta {
			shortages = append(shortages, StockShortage{
				PartID:    id,
				Name:      part.Name,
				Requested: qty,
				Available: part.StockQuantity + applied[id],
			})
		}
	}
	if len(shortages) > 0 {
		return NewWorkflowError(CodeInsufficientStock,
			"insufficient stock for one or more parts").WithDetails(shortages)
	}

	for _, id := range ids {
		delta := requested[id] - applied[id]
		if delta == 0 {
			continue
		}
		if delta > 0 {
			// Conditional decrement: the WHERE guard keeps stock non-negative
			// under concurrent assignment to the same part.
			res := tx.Model(&models.SparePart{}).
				Where("id = ? AND stock_quantity >= ?", id, delta).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", delta))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				part := partsByID[id]
				return NewWorkflowError(CodeInsufficientStock,
					"insufficient stock for one or more parts").WithDetails([]StockShortage{{
					PartID:    id,
					Name:      part.Name,
					Requested: requested[id],
					Available: part.StockQuantity + applied[id],
				}})
			}
		} else {
			if err := tx.Model(&models.SparePart{}).Where("id = ?", id).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", -delta)).Error; err != nil {
				return err
			}
		}
	}

	if err := tx.Where("jobcard_id = ?", jobcard.ID).
		Delete(&models.SparePartAssignment{}).Error; err != nil {
		return err
	}
	for id, qty := range requested {
		part := partsByID[id]
		unit := decimal.NewFromFloat(part.Price)
		total := unit.Mul(decimal.NewFromInt(int64(qty)))
		assignment := models.SparePartAssignment{
			JobcardID:   jobcard.ID,
			SparePartID: id,
			Quantity:    qty,
			UnitPrice:   part.Price,
			TotalPrice:  total.InexactFloat64(),
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
	}
	return nil
}

// SubmitJobcard is the service advisor's one-shot submission: ensure the
// jobcard exists, apply both assignment syncs, require at least one
// mechanic, and move the booking to in_progress.
func SubmitJobcard(db *gorm.DB, bookingID uint, mechanicIDs []uint, parts []PartRequest) (*models.Jobcard, error) {
	requested := make(map[uint]int, len(parts))
	for _, p := range parts {
		if p.Quantity <= 0 {
			return nil, NewWorkflowError(CodeValidationError, "part quantity must be positive")
		}
		requested[p.PartID] += p.Quantity
	}

	var jobcard models.Jobcard
	err := db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "booking not found")
			}
			return err
		}
		if booking.IsTerminal() {
			return NewWorkflowError(CodeInvalidTransition,
				fmt.Sprintf("booking is %s", booking.Status))
		}

		if err := ensureJobcard(tx, &booking, models.JobcardOpen); err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", booking.ID).First(&jobcard).Error; err != nil {
			return err
		}

		if len(mechanicIDs) > 0 {
			if err := syncMechanics(tx, &jobcard, mechanicIDs); err != nil {
				return err
			}
		}
		if len(parts) > 0 {
			if err := syncSpareParts(tx, &jobcard, requested); err != nil {
				return err
			}
		}

		var assigned int64
		if err := tx.Model(&models.MechanicAssignment{}).
			Where("jobcard_id = ?", jobcard.ID).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned == 0 {
			return NewWorkflowError(CodeNoMechanicAssigned,
				"a jobcard cannot be submitted without an assigned mechanic")
		}

		if jobcard.Status == models.JobcardOpen {
			if err := tx.Model(&jobcard).Update("status", models.JobcardInProgress).Error; err != nil {
				return err
			}
			jobcard.Status = models.JobcardInProgress
		}
		if booking.Status != models.BookingInProgress {
			if err := tx.Model(&booking).Update("status", models.BookingInProgress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &jobcard, nil
}

// CompleteMechanicWork marks one mechanic's portion of a jobcard done.
// Idempotent: a second completion returns the current state without
// touching the row. When the last open assignment closes, the jobcard
// moves to ready_for_review.
func CompleteMechanicWork(db *gorm.DB, jobcardID, mechanicID uint, notes string) (*CompletionResult, error) {
	var result CompletionResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var jobcard models.Jobcard
		if err := tx.First(&jobcard, jobcardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "jobcard not found")
			}
			return err
		}

		var assignment models.MechanicAssignment
		if err := tx.Where("jobcard_id = ? AND mechanic_id = ?", jobcardID, mechanicID).
			First(&assignment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "mechanic is not assigned to this jobcard")
			}
			return err
		}

		if assignment.CompletedAt == nil {
			now := timeNow()
			updates := map[string]interface{}{"completed_at": &now}
			if notes != "" {
				updates["notes"] = notes
			}
			if err := tx.Model(&assignment).Updates(updates).Error; err != nil {
				return err
			}
		}

		var remaining int64
		if err := tx.Model(&models.MechanicAssignment{}).
			Where("jobcard_id = ? AND completed_at IS NULL", jobcardID).
			Count(&remaining).Error; err != nil {
			return err
		}
		result.RemainingCount = int(remaining)

		if remaining == 0 && jobcard.Status == models.JobcardInProgress {
			now := timeNow()
			if err := tx.Model(&jobcard).Updates(map[string]interface{}{
				"status":       models.JobcardReadyForReview,
				"completed_at": &now,
			}).Error; err != nil {
				return err
			}
			jobcard.Status = models.JobcardReadyForReview
		}
		result.JobcardReadyForReview = jobcard.Status == models.JobcardReadyForReview
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveJobcard is the service advisor's sign-off: the jobcard completes,
// idle mechanics are freed, the booking becomes verified and an invoice
// notification is queued in the outbox within the same transaction. After
// commit the invoice is generated through the renderer and the outbox is
// dispatched, both best-effort; neither failure rolls the transition back.
func ApproveJobcard(db *gorm.DB, jobcardID uint) (*ApprovalResult, error) {
	result := &ApprovalResult{}
	var bookingID uint
	err := db.Transaction(func(tx *gorm.DB) error {
		var jobcard models.Jobcard
		if err := tx.First(&jobcard, jobcardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewWorkflowError(CodeNotFound, "jobcard not found")
			}
			return err
		}
		if jobcard.Status != models.JobcardReadyForReview {
			return NewWorkflowError(CodeNotReadyForReview,
				fmt.Sprintf("jobcard is %s, not ready_for_review", jobcard.Status))
		}

		now := timeNow()
		if err := tx.Model(&jobcard).Updates(map[string]interface{}{
			"status":       models.JobcardCompleted,
			"completed_at": &now,
		}).Error; err != nil {
			return err
		}
		jobcard.Status = models.JobcardCompleted
		jobcard.CompletedAt = &now

		var assignments []models.MechanicAssignment
		if err := tx.Where("jobcard_id = ?", jobcard.ID).Find(&assignments).Error; err != nil {
			return err
		}
		for _, a := range assignments {
			freed, err := releaseMechanicIfIdle(tx, a.MechanicID)
			if err != nil {
				return err
			}
			if freed {
				result.FreedMechanics = append(result.FreedMechanics, a.MechanicID)
			}
		}

		var booking models.Booking
		if err := tx.Preload("Customer").First(&booking, jobcard.BookingID).Error; err != nil {
			return err
		}
		if err := tx.Model(&booking).Update("status", models.BookingVerified).Error; err != nil {
			return err
		}

		entry := models.NotificationOutbox{
			BookingID: booking.ID,
			Type:      models.NotificationInvoiceReady,
			Recipient: booking.Customer.Email,
			Subject:   fmt.Sprintf("Your vehicle %s is ready for collection", booking.VehicleNumber),
			Body: fmt.Sprintf("Service on %s has been verified. Your invoice will be available shortly.",
				booking.VehicleNumber),
			Status: models.OutboxPending,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		bookingID = booking.ID
		result.Jobcard = &jobcard
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit side effects: the transition above stands whatever
	// happens to rendering or delivery. Generation is idempotent, so a
	// failure here is retried by the next explicit invoice request.
	if invoice, genErr := GenerateInvoice(db, bookingID); genErr != nil {
		log.Printf("Invoice generation after approval failed for booking %d: %v", bookingID, genErr)
	} else {
		if upErr := db.Model(&models.NotificationOutbox{}).
			Where("booking_id = ? AND type = ? AND status = ?",
				bookingID, models.NotificationInvoiceReady, models.OutboxPending).
			Update("body", fmt.Sprintf("Service has been verified. Invoice %s is ready for download.",
				invoice.InvoiceNumber)).Error; upErr != nil {
			log.Printf("Outbox update after invoice generation failed for booking %d: %v", bookingID, upErr)
		}
	}
	DispatchOutbox(db, GetNotifier())

	return result, nil
}

// GetJobcard loads a jobcard with its assignment projections.
func GetJobcard(db *gorm.DB, jobcardID uint) (*models.Jobcard, []models.MechanicAssignment, []models.SparePartAssignment, error) {
	var jobcard models.Jobcard
	if err := db.First(&jobcard, jobcardID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil, NewWorkflowError(CodeNotFound, "jobcard not found")
		}
		return nil, nil, nil, err
	}
	var mechanics []models.MechanicAssignment
	if err := db.Preload("Mechanic").Where("jobcard_id = ?", jobcard.ID).Find(&mechanics).Error; err != nil {
		return nil, nil, nil, err
	}
	var parts []models.SparePartAssignment
	if err := db.Preload("SparePart").Where("jobcard_id = ?", jobcard.ID).Find(&parts).Error; err != nil {
		return nil, nil, nil, err
	}
	return &jobcard, mechanics, parts, nil
}

// GetJobcardByBooking resolves the 1:1 jobcard for a booking.
func GetJobcardByBooking(db *gorm.DB, bookingID uint) (*models.Jobcard, error) {
	var jobcard models.Jobcard
	if err := db.Where("booking_id = ?", bookingID).First(&jobcard).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewWorkflowError(CodeNotFound, "no jobcard exists for this booking")
		}
		return nil, err
	}
	return &jobcard, nil
}
