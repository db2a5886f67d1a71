// Command check tests one address against the configured boundary.
//
//	$ check "1600 Pennsylvania Ave NW, Washington"
//	"1600 Pennsylvania Ave NW, Washington" resolved to 38.897700,-77.036500 via ...
//
// Exit status is 0 when the address is inside, 1 when outside and 2 when
// the lookup failed.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
