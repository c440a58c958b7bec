// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
Package profile turns watch history into seeds for recommendation queries.

Build reads up to HistoryLimit recent plays (through a one hour History
Cache), drops plays by ignored users and from ignored libraries, and
scores every watched title:

	score  = plays*0.7 + recency*0.3      recency = 1/(1+days since last play)
	weight = score * (1 + genre affinity)

Genre affinity is the mean, over the title's genres, of how much of the
total score each genre collected, normalized so the strongest genre is 1.
Seeds are drawn by weighted sampling without replacement from a random
source seeded per session, so a regenerate picks a different mix while
strongly preferred titles stay likely.

Explicit seed picks replace sampling. When history cannot be read or is
empty the builder falls back to the server's trending titles; when those
are unavailable too the profile has no seeds and the generator runs a
popular discover query instead.
*/
package profile
