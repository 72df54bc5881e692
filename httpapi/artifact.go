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

package httpapi

import (
	"fmt"

	"github.com/google/uuid"
)

// ArtifactUUID returns a newly generated random UUID string for the
// artifact URL's <uuid> segment. Every call returns a different value;
// nothing here caches one per plan.
func ArtifactUUID() string {
	return uuid.New().String()
}

// ArtifactURL builds the templated artifact-download URL by literal
// concatenation: no encoding, no slash normalization. If serviceName or
// jobName contains a slash, it is carried through verbatim into the
// result -- an observable quirk that is preserved rather than sanitized
// away.
func ArtifactURL(serviceName, jobName, artifactUUID, pod, task, configFile string) string {
	return fmt.Sprintf(
		"http://api.%s.marathon.l4lb.thisdcos.directory/v1/jobs/%s/artifacts/template/%s/%s/%s/%s",
		serviceName, jobName, artifactUUID, pod, task, configFile,
	)
}
