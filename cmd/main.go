package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pocketmail/pocketmail/pkg/config"
	"github.com/pocketmail/pocketmail/pkg/credential"
	"github.com/pocketmail/pocketmail/pkg/email"
	"github.com/pocketmail/pocketmail/pkg/store"
)

func main() {
	// Load .env if present; real environment variables win
	godotenv.Load()

	// Operations
	var (
		syncFlag     = flag.Bool("sync", false, "Sync recent inbox messages from the IMAP server")
		foldersFlag  = flag.Bool("folders", false, "List remote folders")
		sendFlag     = flag.Bool("send", false, "Send a message: -send -to a@x.com -subject s -body b [-attach f1,f2]")
		forwardID    = flag.String("forward", "", "Forward a stored message: -forward <id> -to a@x.com")
		listFlag     = flag.Bool("list", false, "List stored messages, filtered by -query and -folder")
		showID       = flag.String("show", "", "Show a stored message by ID")
		moveID       = flag.String("move", "", "Move a stored message: -move <id> -folder Archive")
		deleteID     = flag.String("delete", "", "Delete a stored message by ID")
		attachmentID = flag.String("attachments", "", "Download attachments of a synced message by ID")
		demoFlag     = flag.Bool("demo", false, "Insert a demo message")
		providersFl  = flag.Bool("providers", false, "List known email providers")
		statusFlag   = flag.Bool("status", false, "Show account and store status")
		saveLogin    = flag.Bool("save-login", false, "Store EMAIL_APP_PASSWORD in the system keyring")
		forgetLogin  = flag.Bool("forget-login", false, "Remove the saved password from the system keyring")
		contactsFlag = flag.Bool("contacts", false, "List contacts")
		addContact   = flag.Bool("add-contact", false, "Add a contact: -add-contact -name n -email e")
		editContact  = flag.Int("edit-contact", -1, "Update the contact at an index: -edit-contact 0 -name n -email e")
		delContact   = flag.Int("delete-contact", -1, "Delete the contact at an index")
		importPath   = flag.String("import-contacts", "", "Import contacts from a name,email file")
		exportPath   = flag.String("export-contacts", "", "Export contacts to a name,email file")
	)

	// Operation arguments
	var (
		to       = flag.String("to", "", "Comma-separated recipients")
		subject  = flag.String("subject", "", "Message subject")
		body     = flag.String("body", "", "Message body")
		attach   = flag.String("attach", "", "Comma-separated attachment file paths")
		query    = flag.String("query", "", "Search text for -list")
		folder   = flag.String("folder", "", "Folder name for -list and -move")
		name     = flag.String("name", "", "Contact name")
		emailArg = flag.String("email", "", "Contact email address")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	// Fall back to a keyring-saved app password
	if cfg.EmailPassword == "" && cfg.EmailAddress != "" {
		if pw, err := credential.Get(cfg.EmailAddress); err == nil {
			cfg.EmailPassword = pw
		}
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal(err)
	}

	if *providersFl {
		printJSON(config.Providers())
		return
	}

	if *statusFlag {
		byFolder := make(map[string]int)
		msgs := st.Messages()
		for _, m := range msgs {
			byFolder[m.Folder]++
		}
		view := map[string]interface{}{
			"provider":   cfg.Provider,
			"store_path": st.Path(),
			"messages":   len(msgs),
			"by_folder":  byFolder,
			"contacts":   len(st.Contacts()),
		}
		if cfg.EmailAddress != "" {
			view["email_address"] = cfg.EmailAddress
		}
		if meta, err := config.ReadAccountMetadata(cfg.MetadataFile); err == nil {
			view["last_sync_at"] = meta.LastSyncAt.Format(store.TimestampFormat)
			view["last_sync_added"] = meta.LastSyncAdded
		}
		printJSON(view)
		return
	}

	if *saveLogin {
		if cfg.EmailAddress == "" || cfg.EmailPassword == "" {
			fail(fmt.Errorf("EMAIL_ADDRESS and EMAIL_APP_PASSWORD must be set to save a login"))
		}
		if err := credential.Set(cfg.EmailAddress, cfg.EmailPassword); err != nil {
			fail(err)
		}
		fmt.Printf("Password saved to keyring for %s\n", cfg.EmailAddress)
		return
	}

	if *forgetLogin {
		if cfg.EmailAddress == "" {
			fail(fmt.Errorf("EMAIL_ADDRESS must be set to forget a login"))
		}
		if err := credential.Delete(cfg.EmailAddress); err != nil {
			fail(err)
		}
		fmt.Printf("Password removed from keyring for %s\n", cfg.EmailAddress)
		return
	}

	if *demoFlag {
		msg, err := st.AddDemoMessage()
		if err != nil {
			fail(err)
		}
		printJSON(msg)
		return
	}

	if *syncFlag {
		if err := cfg.ValidateForOperation(); err != nil {
			fail(err)
		}
		added, err := email.NewIMAPClient(cfg, st).SyncInbox()
		if err != nil {
			fail(err)
		}
		if err := config.WriteAccountMetadata(cfg.MetadataFile, cfg.EmailAddress, cfg.Provider, added); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record sync: %v\n", err)
		}
		fmt.Printf("Synced %d new message(s)\n", added)
		return
	}

	if *foldersFlag {
		if err := cfg.ValidateForOperation(); err != nil {
			fail(err)
		}
		folders, err := email.NewIMAPClient(cfg, st).ListFolders()
		if err != nil {
			fail(err)
		}
		printJSON(folders)
		return
	}

	if *sendFlag {
		if err := cfg.ValidateForOperation(); err != nil {
			fail(err)
		}
		subj := *subject
		if subj == "" {
			subj = "(no subject)"
		}
		sent, err := email.NewSMTPClient(cfg, st).Send(email.SendOptions{
			To:          splitList(*to),
			Subject:     subj,
			Body:        *body,
			Attachments: splitList(*attach),
		})
		if err != nil {
			fail(err)
		}
		printJSON(sent)
		return
	}

	if *forwardID != "" {
		if err := cfg.ValidateForOperation(); err != nil {
			fail(err)
		}
		sent, err := email.NewSMTPClient(cfg, st).Forward(*forwardID, splitList(*to))
		if err != nil {
			fail(err)
		}
		printJSON(sent)
		return
	}

	if *attachmentID != "" {
		if err := cfg.ValidateForOperation(); err != nil {
			fail(err)
		}
		imapClient := email.NewIMAPClient(cfg, st)
		paths, err := email.NewAttachmentFetcher(cfg, imapClient, st).Download(*attachmentID)
		if err != nil {
			fail(err)
		}
		if len(paths) == 0 {
			fmt.Println("No attachments found")
			return
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return
	}

	if *listFlag {
		printJSON(st.SearchMessages(*query, *folder))
		return
	}

	if *showID != "" {
		msg, ok := st.GetMessage(*showID)
		if !ok {
			fail(fmt.Errorf("message not found: %s", *showID))
		}
		fmt.Print(renderMessage(msg))
		return
	}

	if *moveID != "" {
		if *folder == "" {
			fail(fmt.Errorf("-folder is required with -move"))
		}
		if _, ok := st.GetMessage(*moveID); !ok {
			fail(fmt.Errorf("message not found: %s", *moveID))
		}
		if err := st.UpdateFolder(*moveID, *folder); err != nil {
			fail(err)
		}
		fmt.Printf("Moved %s to %s\n", *moveID, *folder)
		return
	}

	if *deleteID != "" {
		if err := st.DeleteMessage(*deleteID); err != nil {
			fail(err)
		}
		fmt.Printf("Deleted %s\n", *deleteID)
		return
	}

	if *contactsFlag {
		type contactView struct {
			Index int    `json:"index"`
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		views := []contactView{}
		for i, c := range st.Contacts() {
			views = append(views, contactView{Index: i, Name: c.Name, Email: c.Email})
		}
		printJSON(views)
		return
	}

	if *addContact {
		if *name == "" || *emailArg == "" {
			fail(fmt.Errorf("-name and -email are required with -add-contact"))
		}
		if err := st.AddContact(*name, *emailArg); err != nil {
			fail(err)
		}
		fmt.Println("Contact added")
		return
	}

	if *editContact >= 0 {
		if *name == "" || *emailArg == "" {
			fail(fmt.Errorf("-name and -email are required with -edit-contact"))
		}
		if *editContact >= len(st.Contacts()) {
			fail(fmt.Errorf("contact index out of range: %d", *editContact))
		}
		if err := st.UpdateContact(*editContact, *name, *emailArg); err != nil {
			fail(err)
		}
		fmt.Println("Contact updated")
		return
	}

	if *delContact >= 0 {
		if *delContact >= len(st.Contacts()) {
			fail(fmt.Errorf("contact index out of range: %d", *delContact))
		}
		if err := st.DeleteContact(*delContact); err != nil {
			fail(err)
		}
		fmt.Println("Contact deleted")
		return
	}

	if *importPath != "" {
		if err := st.ImportContacts(*importPath); err != nil {
			fail(err)
		}
		fmt.Printf("Imported contacts from %s\n", *importPath)
		return
	}

	if *exportPath != "" {
		if err := st.ExportContacts(*exportPath); err != nil {
			fail(err)
		}
		fmt.Printf("Exported contacts to %s\n", *exportPath)
		return
	}

	// No operation selected
	flag.Usage()
	os.Exit(2)
}

// renderMessage formats a stored message the way the detail view of a
// mail client would.
func renderMessage(m store.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From:    %s\n", m.Sender)
	fmt.Fprintf(&b, "To:      %s\n", strings.Join(m.Recipients, ", "))
	fmt.Fprintf(&b, "Date:    %s\n", m.Timestamp)
	fmt.Fprintf(&b, "Folder:  %s\n", m.Folder)
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	if m.ForwardedFrom != "" {
		fmt.Fprintf(&b, "Forwarded from: %s\n", m.ForwardedFrom)
	}
	fmt.Fprintf(&b, "\n%s\n", m.Body)
	if len(m.Attachments) > 0 {
		b.WriteString("\nAttachments:\n")
		for _, a := range m.Attachments {
			fmt.Fprintf(&b, "  %s\n", a)
		}
	}
	return b.String()
}

// splitList splits a comma-separated flag value, dropping empty
// entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
