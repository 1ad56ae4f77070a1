package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/noto-agent/internal/app/conversation"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message and print Noto's reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}
	cmd.Flags().StringP("category", "c", "General", "Conversation to talk in")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

	app, err := loadApp(cmd.Context(), os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()

	conv, err := app.Conversations.StartConversation(cmd.Context(), category)
	if err != nil {
		return err
	}

	out, err := app.Conversations.SendMessage(cmd.Context(), conversation.SendMessageInput{
		ConversationID: conv.ID,
		Texts:          []string{strings.Join(args, " ")},
	})
	if out != nil && out.BotMessage != nil {
		fmt.Fprintln(cmd.OutOrStdout(), out.BotMessage.Text)
	}
	return err
}
