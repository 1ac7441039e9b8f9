package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jrsteele09/creator-relay/session"
	"github.com/spf13/cobra"
)

var (
	forceRefresh bool
	maxCount     int
	post         session.PostInfo
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in creator's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		info, err := client.GetUserInfo(ctx, forceRefresh)
		if err != nil {
			return err
		}
		printJSON(cmd, info.Profile)
		if info.Refresh != nil {
			// the cached copy was printed; let the refresh land in the store
			_ = info.Refresh.Wait(ctx)
		}
		return nil
	},
}

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List recent videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		raw, err := client.GetUserVideos(ctx, maxCount)
		if err != nil {
			return err
		}
		printJSON(cmd, raw)
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights <video-id>...",
	Short: "Show metrics for specific videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		raw, err := client.GetVideoInsights(ctx, args...)
		if err != nil {
			return err
		}
		printJSON(cmd, raw)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Publish a local video file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		res, err := client.PostVideo(ctx, post, f, fi.Size(), func(p session.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\ruploaded %d/%d bytes (%d%%)", p.Uploaded, p.Total, p.Percent)
		})
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "publish_id: %s\n", res.PublishID)
		return nil
	},
}

var photoCmd = &cobra.Command{
	Use:   "photo <url>...",
	Short: "Publish a photo post pulled from public URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		res, err := client.PostPhoto(ctx, post, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "publish_id: %s\n", res.PublishID)
		return nil
	},
}

var postStatusCmd = &cobra.Command{
	Use:   "post-status <publish-id>",
	Short: "Show the processing status of a publish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		raw, err := client.GetPostStatus(ctx, args[0])
		if err != nil {
			return err
		}
		printJSON(cmd, raw)
		return nil
	},
}

var trendingCmd = &cobra.Command{
	Use:       "trending hashtags|songs",
	Short:     "Show trending hashtags or songs",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"hashtags", "songs"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		get := client.GetTrendingHashtags
		if args[0] == "songs" {
			get = client.GetTrendingSongs
		}
		raw, err := get(ctx)
		if err != nil {
			return err
		}
		printJSON(cmd, raw)
		return nil
	},
}

func addPostFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&post.Title, "title", "", "post title")
	f.StringVar(&post.Description, "description", "", "post description")
	f.StringVar(&post.PrivacyLevel, "privacy", session.PrivacySelfOnly, "privacy level")
	f.BoolVar(&post.DisableComment, "no-comments", false, "disable comments")
	f.BoolVar(&post.DisableDuet, "no-duet", false, "disable duets")
	f.BoolVar(&post.DisableStitch, "no-stitch", false, "disable stitches")
}

func init() {
	whoamiCmd.Flags().BoolVar(&forceRefresh, "refresh", false, "skip the cached profile")
	videosCmd.Flags().IntVar(&maxCount, "max", session.DefaultMaxVideoCount, "number of videos")
	addPostFlags(uploadCmd)
	addPostFlags(photoCmd)

	rootCmd.AddCommand(whoamiCmd, videosCmd, insightsCmd, uploadCmd, photoCmd, postStatusCmd, trendingCmd)
}
