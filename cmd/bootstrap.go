package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Re-extract descriptors from stored reference images",
	Long: `Re-extract descriptors for every enrolled identity from its
reference images on disk and replace the stored descriptors.
Run this after switching EXTRACTOR_MODE: descriptors extracted in one mode
cannot be matched in the other, so the whole gallery has to be reprocessed
from the original images.`,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	s, err := initStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}
	if len(identities) == 0 {
		fmt.Println("No identities enrolled.")
		return nil
	}

	fmt.Printf("Re-extracting descriptors for %d identities (%s mode)\n\n",
		len(identities), s.cfg.Extractor.Mode)
	bar := progressbar.NewOptions(len(identities),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("identities"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var processed, skipped, descriptors int
	for i := range identities {
		identity := &identities[i]
		n, err := s.service.ReenrollDescriptors(ctx, identity.ID)
		if err != nil {
			skipped++
		} else {
			processed++
			descriptors += n
		}
		_ = bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Processed %d identities, %d descriptors extracted\n", processed, descriptors)
	if skipped > 0 {
		fmt.Printf("Skipped %d identities without usable reference images\n", skipped)
	}

	snapshot, err := s.rebuilder.RebuildNow(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}
	fmt.Printf("Index rebuilt with %d identities\n", len(snapshot.Entries))
	return nil
}
