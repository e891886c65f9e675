package domain

// ProfilePatch is a partial profile update. Nil fields are left
// untouched by Apply; non-nil fields replace the draft's value wholesale
// (shallow merge, matching the save-draft contract).
type ProfilePatch struct {
	Name              *string    `json:"name,omitempty"`
	Bio               *string    `json:"bio,omitempty"`
	GithubHandle      *string    `json:"githubHandle,omitempty"`
	ActiveAnimationID *string    `json:"activeAnimationId,omitempty"`
	Projects          *[]Project `json:"projects,omitempty"`
	Activity          *Activity  `json:"activity,omitempty"`
	ImageRef          *MediaRef  `json:"imageRef,omitempty"`
	ReadmeRef         *MediaRef  `json:"readmeRef,omitempty"`
	ReadmeName        *string    `json:"readmeName,omitempty"`
}

// Apply merges the patch into a copy of base and returns it. Social
// links without an explicit platform get one derived from their URL.
func (pp ProfilePatch) Apply(base *Profile) *Profile {
	out := base.Clone()
	if out == nil {
		out = DefaultProfile()
	}
	if pp.Name != nil {
		out.Name = *pp.Name
	}
	if pp.Bio != nil {
		out.Bio = *pp.Bio
	}
	if pp.GithubHandle != nil {
		out.GithubHandle = *pp.GithubHandle
	}
	if pp.ActiveAnimationID != nil {
		out.ActiveAnimationID = *pp.ActiveAnimationID
	}
	if pp.Projects != nil {
		out.Projects = *pp.Projects
	}
	if pp.Activity != nil {
		out.Activity = *pp.Activity
	}
	if pp.ImageRef != nil {
		out.ImageRef = *pp.ImageRef
	}
	if pp.ReadmeRef != nil {
		out.ReadmeRef = *pp.ReadmeRef
	}
	if pp.ReadmeName != nil {
		out.ReadmeName = *pp.ReadmeName
	}
	for i := range out.Activity.SocialLinks {
		if out.Activity.SocialLinks[i].Platform == "" {
			out.Activity.SocialLinks[i].Platform = DerivePlatform(out.Activity.SocialLinks[i].URL)
		}
	}
	return out
}
