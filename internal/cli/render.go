package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

const tableDateLayout = "2006-01-02"

// RenderAssignmentsTable renders assignments as an aligned table.
func RenderAssignmentsTable(assignments []model.Assignment) string {
	if len(assignments) == 0 {
		return SubtleStyle.Render("No assignments found.")
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Document"),
		HeaderStyle.Render("Claim"),
		HeaderStyle.Render("Score"),
		HeaderStyle.Render("Status"),
		HeaderStyle.Render("Reason"))

	for _, a := range assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\t%s\n",
			a.ID, a.DocumentID, a.ClaimID, a.MatchScore,
			renderAssignmentStatus(a.Status), truncate(a.MatchReason, 60))
	}

	_ = w.Flush()
	return sb.String()
}

// RenderAssignmentDetail renders one assignment with its match evidence.
func RenderAssignmentDetail(a *model.Assignment) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", HeaderStyle.Render("Assignment"), a.ID)
	fmt.Fprintf(&sb, "  Document: %s\n", a.DocumentID)
	fmt.Fprintf(&sb, "  Claim:    %s\n", a.ClaimID)
	fmt.Fprintf(&sb, "  Score:    %.1f (%s)\n", a.MatchScore, a.MatchReasonType)
	fmt.Fprintf(&sb, "  Status:   %s\n", renderAssignmentStatus(a.Status))
	if a.MatchReason != "" {
		fmt.Fprintf(&sb, "  Reason:   %s\n", a.MatchReason)
	}
	if a.AmountMatch != nil {
		fmt.Fprintf(&sb, "  Amounts:  %.2f %s vs %.2f (diff %.1f%%)\n",
			a.AmountMatch.DocumentAmount, a.AmountMatch.Currency,
			a.AmountMatch.ClaimAmount, a.AmountMatch.DifferencePct)
	}
	if a.DateMatch != nil {
		fmt.Fprintf(&sb, "  Dates:    %s vs %s (%d days apart)\n",
			a.DateMatch.DocumentDate.Format(tableDateLayout),
			a.DateMatch.ClaimDate.Format(tableDateLayout),
			a.DateMatch.DistanceDays)
	}
	if a.ConfirmedIllnessID != "" {
		fmt.Fprintf(&sb, "  Illness:  %s\n", a.ConfirmedIllnessID)
	}
	if a.ReviewNotes != "" {
		fmt.Fprintf(&sb, "  Notes:    %s\n", a.ReviewNotes)
	}

	return sb.String()
}

// RenderDraftClaimsTable renders draft claims as an aligned table.
func RenderDraftClaimsTable(drafts []model.DraftClaim) string {
	if len(drafts) == 0 {
		return SubtleStyle.Render("No draft claims found.")
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Document"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Status"),
		HeaderStyle.Render("Treatment"),
		HeaderStyle.Render("Proof"))

	for _, d := range drafts {
		fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%s\t%s\t%s\n",
			d.ID, d.PrimaryDocumentID,
			d.Payment.Amount, d.Payment.Currency,
			renderDraftStatus(d.Status),
			renderDate(d.TreatmentDate),
			renderProof(d))
	}

	_ = w.Flush()
	return sb.String()
}

// RenderDraftClaimDetail renders one draft claim with its payment snapshot.
func RenderDraftClaimDetail(d *model.DraftClaim) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", HeaderStyle.Render("Draft claim"), d.ID)
	fmt.Fprintf(&sb, "  Document:  %s\n", d.PrimaryDocumentID)
	fmt.Fprintf(&sb, "  Status:    %s\n", renderDraftStatus(d.Status))
	fmt.Fprintf(&sb, "  Payment:   %.2f %s (%s, confidence %d)\n",
		d.Payment.Amount, d.Payment.Currency, d.Payment.Source, d.Payment.Confidence)
	if d.Payment.OverrideNote != "" {
		fmt.Fprintf(&sb, "  Override:  %s\n", d.Payment.OverrideNote)
	}
	fmt.Fprintf(&sb, "  Treatment: %s", renderDate(d.TreatmentDate))
	if d.TreatmentDateSource != "" {
		fmt.Fprintf(&sb, " (%s)", d.TreatmentDateSource)
	}
	sb.WriteString("\n")
	if d.IllnessID != "" {
		fmt.Fprintf(&sb, "  Illness:   %s\n", d.IllnessID)
	}
	if d.DoctorNotes != "" {
		fmt.Fprintf(&sb, "  Notes:     %s\n", d.DoctorNotes)
	}
	if len(d.PaymentProofDocumentIDs) > 0 {
		fmt.Fprintf(&sb, "  Proof:     %s\n", strings.Join(d.PaymentProofDocumentIDs, ", "))
	}
	if d.PaymentProofText != "" {
		fmt.Fprintf(&sb, "  Proof txt: %s\n", truncate(d.PaymentProofText, 60))
	}
	if len(d.DocumentIDs) > 0 {
		fmt.Fprintf(&sb, "  Documents: %s\n", strings.Join(d.DocumentIDs, ", "))
	}

	return sb.String()
}

func renderAssignmentStatus(s model.AssignmentStatus) string {
	switch s {
	case model.AssignmentConfirmed:
		return SuccessStyle.Render(string(s))
	case model.AssignmentRejected:
		return ErrorStyle.Render(string(s))
	default:
		return WarningStyle.Render(string(s))
	}
}

func renderDraftStatus(s model.DraftClaimStatus) string {
	switch s {
	case model.DraftAccepted:
		return SuccessStyle.Render(string(s))
	case model.DraftRejected:
		return ErrorStyle.Render(string(s))
	default:
		return WarningStyle.Render(string(s))
	}
}

func renderDate(t *time.Time) string {
	if t == nil {
		return SubtleStyle.Render("-")
	}
	return t.Format(tableDateLayout)
}

func renderProof(d model.DraftClaim) string {
	if !d.HasPaymentProof() {
		return SubtleStyle.Render("none")
	}
	if n := len(d.PaymentProofDocumentIDs); n > 0 {
		return fmt.Sprintf("%d doc(s)", n)
	}
	return "text"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
