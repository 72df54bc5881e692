/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package leader gates scheduler mutation rights across replicas using a
// ZooKeeper ephemeral-sequential advisory lock, the same primitive family
// the teacher uses for framework-id persistence, applied here to leader
// election instead.
package leader

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"
	"github.com/samuel/go-zookeeper/zk"
)

const candidatePrefix = "member-"

// Lock is a ZooKeeper ephemeral-sequential advisory lock: the candidate
// holding the lowest-numbered sequence node under electionPath is the
// leader. Losing the session (and therefore the ephemeral node) flips
// IsLeader to false the next time the watch fires.
type Lock struct {
	conn          *zk.Conn
	electionPath  string
	nodePath      string
	isLeader      atomic.Bool
	lostCh        chan struct{}
	lostOnce      sync.Once
}

// Acquire creates this replica's candidate node and starts watching for
// leadership. It returns once the candidate node exists; leadership itself
// is asynchronous and observed via IsLeader/Lost.
func Acquire(conn *zk.Conn, electionPath string) (*Lock, error) {
	if err := ensureNode(conn, electionPath); err != nil {
		return nil, err
	}
	nodePath, err := conn.CreateProtectedEphemeralSequential(
		path.Join(electionPath, candidatePrefix), nil, zk.WorldACL(zk.PermAll))
	if err != nil {
		return nil, fmt.Errorf("leader: create candidate node failed: %w", err)
	}

	l := &Lock{conn: conn, electionPath: electionPath, nodePath: nodePath, lostCh: make(chan struct{})}
	go l.watch()
	return l, nil
}

func ensureNode(conn *zk.Conn, p string) error {
	_, err := conn.Create(p, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("leader: create election path %s failed: %w", p, err)
	}
	return nil
}

func (l *Lock) sequence() (string, error) {
	base := path.Base(l.nodePath)
	idx := strings.LastIndex(base, candidatePrefix)
	if idx < 0 {
		return "", fmt.Errorf("leader: malformed candidate node %q", base)
	}
	return base[idx+len(candidatePrefix):], nil
}

func (l *Lock) watch() {
	for {
		children, _, events, err := l.conn.ChildrenW(l.electionPath)
		if err != nil {
			log.Errorf("leader: watch on %s failed: %v", l.electionPath, err)
			l.declareLost()
			return
		}
		sort.Strings(children)

		mySeq, err := l.sequence()
		if err != nil {
			log.Errorf("leader: %v", err)
			l.declareLost()
			return
		}
		leading := len(children) > 0 && sequenceOf(children[0]) == mySeq
		wasLeading := l.isLeader.Swap(leading)
		if leading && !wasLeading {
			log.Info("leader: acquired leadership")
		} else if !leading && wasLeading {
			log.Warning("leader: lost leadership")
		}

		ev := <-events
		if ev.Type == zk.EventNotWatching || ev.State == zk.StateExpired {
			l.declareLost()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sequenceOf(nodeName string) string {
	idx := strings.LastIndex(nodeName, candidatePrefix)
	if idx < 0 {
		return ""
	}
	return nodeName[idx+len(candidatePrefix):]
}

func (l *Lock) declareLost() {
	l.isLeader.Store(false)
	l.lostOnce.Do(func() { close(l.lostCh) })
}

// IsLeader reports whether this replica currently holds the lock.
func (l *Lock) IsLeader() bool {
	return l.isLeader.Load()
}

// Lost is closed permanently once this lock's session is confirmed gone
// (expired, or the watch loop could not be re-established).
func (l *Lock) Lost() <-chan struct{} {
	return l.lostCh
}

// Release deletes this replica's candidate node, yielding leadership
// immediately rather than waiting on session expiry.
func (l *Lock) Release() error {
	if err := l.conn.Delete(l.nodePath, -1); err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("leader: release failed: %w", err)
	}
	l.declareLost()
	return nil
}
