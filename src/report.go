package magstripe

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
)

/*------------------------------------------------------------------
 *
 * Name:        Report
 *
 * Purpose:     Print the result of one swipe.
 *
 * Inputs:	w		- Where to.  Normally stdout.
 *
 *		timestampFormat	- strftime pattern for a prefix such as
 *				  "%H:%M:%S".  Empty for none.
 *
 *		label		- Extra prefix, e.g. "DECODED[3]".  Empty
 *				  for none.
 *
 * Description:	A good read prints just the track data so the output
 *		can be piped somewhere.  A bad one prints the reason.
 *
 *----------------------------------------------------------------*/

func Report(w io.Writer, timestampFormat string, label string, track Track, decodeErr error) error {
	var prefix = ""

	if timestampFormat != "" {
		var formatted, err = strftime.Format(timestampFormat, time.Now())
		if err != nil {
			return fmt.Errorf("timestamp format %q: %w", timestampFormat, err)
		}
		prefix = "[" + formatted + "] "
	}

	if label != "" {
		prefix += label + " "
	}

	var err error
	if decodeErr != nil {
		_, err = fmt.Fprintf(w, "%sERROR: %s\n", prefix, decodeErr)
	} else {
		_, err = fmt.Fprintf(w, "%s%s\n", prefix, track.Data)
	}

	return err //nolint:wrapcheck
}

// CheckTimestampFormat catches a bad -T before waiting for a swipe.
func CheckTimestampFormat(pattern string) error {
	if pattern == "" {
		return nil
	}

	if _, err := strftime.New(pattern); err != nil {
		return fmt.Errorf("timestamp format %q: %w", pattern, err)
	}

	return nil
}
