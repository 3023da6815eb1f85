// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// minUnprivilegedInterval is the shortest cycle interval allowed without root.
const minUnprivilegedInterval = time.Second

// geteuid is replaced in tests.
var geteuid = unix.Geteuid

// checkPrivilege returns [ErrPrivilege] if the interval requires root
// and the process is not running as root.
func checkPrivilege(interval time.Duration) error {
	if interval >= minUnprivilegedInterval || geteuid() == 0 {
		return nil
	}
	return fmt.Errorf("%w: intervals below %s require root, got %s", ErrPrivilege, minUnprivilegedInterval, interval)
}
