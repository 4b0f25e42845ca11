// Zaparoo FairLock
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo FairLock.
//
// Zaparoo FairLock is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo FairLock is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo FairLock.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ZaparooProject/zaparoo-fairlock/pkg/bench"
)

func printReports(out io.Writer, reports []bench.Report) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KIND\tTOTAL\tHANDOFFS\tMAX STREAK\tLOST\tCONTENDED\tMAX WAIT\tELAPSED")
	for _, r := range reports {
		contended, maxWait := "-", "-"
		if r.Stats != nil {
			contended = fmt.Sprintf("%d", r.Stats.Contended)
			maxWait = r.Stats.MaxWait.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.Kind, r.Total, r.Handoffs, r.MaxStreak, r.LostUpdates,
			contended, maxWait, r.Elapsed)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
