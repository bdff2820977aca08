package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facemark/facemark/internal/index"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Scan the gallery for duplicate enrollments",
	Long: `Scan all enrolled identities for cross-identity descriptor pairs
above the duplicate threshold. Enrollment rejects duplicates as they
arrive; this finds pairs that predate the guard or were enrolled under a
looser threshold.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().Float64("threshold", 0, "Similarity threshold (defaults to the enrollment threshold)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	s, err := initStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	// Pairs are scored by correlation regardless of extractor mode, so the
	// default comes from the vector-mode enrollment threshold.
	threshold := mustGetFloat64(cmd, "threshold")
	if threshold == 0 {
		threshold = s.cfg.ModeThresholds(index.ModeVector).Enroll
	}

	snapshot, err := s.rebuilder.RebuildNow(context.Background())
	if err != nil {
		return err
	}

	pairs := index.FindDuplicates(snapshot, threshold)
	if len(pairs) == 0 {
		fmt.Printf("No duplicate enrollments above threshold %.2f (%d identities)\n",
			threshold, len(snapshot.Entries))
		return nil
	}

	fmt.Printf("Found %d suspect pairs above threshold %.2f:\n\n", len(pairs), threshold)
	for _, p := range pairs {
		fmt.Printf("  %.3f  %s (%s)  <->  %s (%s)\n",
			p.Similarity, p.Name, p.IdentityID, p.OtherName, p.OtherID)
	}
	return nil
}
