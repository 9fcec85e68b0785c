package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key] | get [collection] [documentId]",
		Short: "Reads a record by key or by collection and document id",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp relay.Response
				err  error
			)
			if len(args) == 1 {
				resp, err = rpcClient.GetData(context.Background(), args[0])
			} else {
				resp, err = rpcClient.GetDocument(context.Background(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("get failed: %s", resp.Message)
			}
			if resp.Found == nil || !*resp.Found {
				fmt.Println("not found")
				return nil
			}
			return printJSON(resp.Data)
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Writes a value for a key (JSON values are stored as JSON, anything else as string)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := rpcClient.SetData(context.Background(), args[0], parseValue(args[1]))
			if err != nil {
				return err
			}
			return printAck(resp)
		},
	}
	enqueueCmd = &cobra.Command{
		Use:   "enqueue [collection] [documentId] [value]",
		Short: "Publishes a durable write request for a document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			operation, _ := cmd.Flags().GetString("operation")
			var merge *bool
			if cmd.Flags().Changed("merge") {
				m, _ := cmd.Flags().GetBool("merge")
				merge = &m
			}
			resp, err := rpcClient.Enqueue(context.Background(), args[0], args[1], parseValue(args[2]), operation, merge)
			if err != nil {
				return err
			}
			return printAck(resp)
		},
	}
	subscribeCmd = &cobra.Command{
		Use:   "subscribe [collection]...",
		Short: "Subscribes to collections and prints snapshots and changes until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eventColor := color.New(color.FgCyan, color.Bold).SprintFunc()
			rpcClient.On("*", func(event string, payload any) {
				data, err := json.Marshal(payload)
				if err != nil {
					data = []byte(fmt.Sprint(payload))
				}
				fmt.Printf("%s %s\n", eventColor(event), data)
			})

			resp, err := rpcClient.Subscribe(ctx, args...)
			if err != nil {
				return err
			}
			if err := printAck(resp); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
			case <-rpcClient.Done():
				return fmt.Errorf("connection closed by server")
			}
			return nil
		},
	}
)

func init() {
	enqueueCmd.Flags().String("operation", relay.OperationSet, "Write operation (set, update, delete)")
	enqueueCmd.Flags().Bool("merge", false, "Merge flag forwarded with the write request")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseValue returns the decoded JSON value of s, or s itself if it is not JSON
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printAck prints the message of a successful ack and turns a failed ack into an error
func printAck(resp relay.Response) error {
	if !resp.Success {
		return fmt.Errorf("request failed: %s", resp.Message)
	}
	if resp.ID != "" {
		fmt.Printf("%s (%s)\n", resp.Message, resp.ID)
	} else {
		fmt.Println(resp.Message)
	}
	return nil
}
