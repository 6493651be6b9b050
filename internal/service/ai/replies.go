package ai

import (
	"fmt"
	"strings"
)

// MockReply is returned for every prompt while no credential is configured.
func MockReply(credentialEnv string) string {
	return fmt.Sprintf("I am **MaxAI**! \n\nHowever, it seems my brain (the model API key) hasn't been connected yet. "+
		"Please add your `%s` to the `.env` file and restart MaxAI to unlock my full potential!",
		credentialEnv)
}

// FaultReply renders a classified failure as markdown for the transcript.
func FaultReply(f *Fault, credentialEnv string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Error:** An issue occurred while contacting my brain. \n\nDetails: _%s_\n\n", f.Error())

	switch f.Kind {
	case FaultInvalidCredential:
		fmt.Fprintf(&b, "**Troubleshooting:**\n"+
			"1. It looks like your API key might be invalid. Please check that you copied the exact, full key from your provider's console.\n"+
			"2. Replace the old `%s` value in your environment or `.env` file with the new one.\n"+
			"3. **CRITICAL:** Restart MaxAI. The key is only read once at startup!", credentialEnv)
	case FaultNetwork:
		b.WriteString("**Troubleshooting:** This seems to be a network error. " +
			"Are you connected to the internet, or is a firewall blocking the request?")
	default:
		fmt.Fprintf(&b, "**Troubleshooting:**\n"+
			"1. Did you set `%s` exactly as typed here?\n"+
			"2. **CRITICAL:** Did you restart MaxAI after setting the key? Changing the variable isn't enough; it is only read at startup.\n"+
			"3. Make sure you don't have any extra spaces before or after your key.", credentialEnv)
	}

	return b.String()
}
