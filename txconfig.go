/*
 * Copyright (c) "Graphwire"
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bolt

import (
	"time"

	"github.com/graphwire/bolt/log"
)

// TxConfig configures a transaction or an auto-commit run. The zero value
// is a writable transaction on the default database with server defaults
// for everything else.
type TxConfig struct {
	ReadOnly                        bool
	Bookmarks                       []string
	Timeout                         time.Duration
	Metadata                        map[string]any
	Database                        string
	ImpersonatedUser                string
	NotificationsMinSeverity        string
	NotificationsDisabledCategories []string
}

// toExtra renders the option bag for BEGIN and RUN. Absent options never
// appear in the map. Options the negotiated version cannot express fail
// with a protocol error rather than being dropped silently.
func (t *TxConfig) toExtra(c *Connection) (map[string]any, error) {
	extra := map[string]any{}
	if t == nil {
		return extra, nil
	}
	if t.ReadOnly {
		extra["mode"] = "r"
	}
	bookmarks := t.Bookmarks
	if len(bookmarks) == 0 && c.bookmark != "" {
		bookmarks = []string{c.bookmark}
	}
	if len(bookmarks) > 0 {
		extra["bookmarks"] = bookmarks
	}
	if t.Timeout > 0 {
		ms := t.Timeout.Milliseconds()
		if t.Timeout.Nanoseconds()%int64(time.Millisecond) > 0 {
			ms++
			c.log.Infof(log.Connection, c.logId, "transaction timeout rounded up to the next millisecond")
		}
		extra["tx_timeout"] = ms
	}
	if len(t.Metadata) > 0 {
		extra["tx_metadata"] = t.Metadata
	}
	database := t.Database
	if database == "" {
		database = c.settings.Database
	}
	if database != "" {
		if !c.version.AtLeast(4, 0) {
			return nil, &ProtocolError{Msg: "database selection requires Bolt 4.0 or newer"}
		}
		extra["db"] = database
	}
	if t.ImpersonatedUser != "" {
		if !c.version.AtLeast(4, 4) {
			return nil, &ProtocolError{Msg: "impersonation requires Bolt 4.4 or newer"}
		}
		extra["imp_user"] = t.ImpersonatedUser
	}
	if err := notificationFiltering(c, t.NotificationsMinSeverity, t.NotificationsDisabledCategories, extra); err != nil {
		return nil, err
	}
	return extra, nil
}

// notificationFiltering adds the notification filter keys to an extra map,
// verifying the capability first.
func notificationFiltering(c *Connection, minSeverity string, disabledCategories []string, extra map[string]any) error {
	if minSeverity == "" && len(disabledCategories) == 0 {
		return nil
	}
	if !c.caps.Has(CapNotificationFiltering) {
		return &ProtocolError{Msg: "notification filtering requires Bolt 5.2 or newer"}
	}
	if minSeverity != "" {
		extra["notifications_minimum_severity"] = minSeverity
	}
	if len(disabledCategories) > 0 {
		extra["notifications_disabled_categories"] = disabledCategories
	}
	return nil
}
