package main

import (
	"fmt"
	"os"
	"pkgdb/pkgdb/auditlog"
	"pkgdb/pkgdb/schema"
	"pkgdb/pkgdb/services"
	"pkgdb/utils"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func parseStatusArg(value string) (schema.Status, error) {
	if value == "" {
		return 0, nil
	}
	return schema.ParseStatus(value)
}

func parseTimeArg(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid time '%v' provided for %v, expected RFC3339: %w", value, name, err)
	}
	return &t, nil
}

type statusResult struct {
	Id     uuid.UUID     `json:"id"`
	Status schema.Status `json:"status"`
	Name   string        `json:"status_name"`
}

func (a *app) statusResult(cmd *cobra.Command, id uuid.UUID, status schema.Status) error {
	translation, err := a.pkg.Catalog.Translate(cmd.Context(), status, a.env.Language)
	if err != nil {
		return err
	}
	return a.print(statusResult{Id: id, Status: status, Name: translation.StatusName})
}

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "status", Short: "Inspect and translate status codes"}

	list := &cobra.Command{
		Use:   "list <family>",
		Short: "List the status codes of a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := a.pkg.Catalog.ListStatuses(schema.Family(args[0]))
			if err != nil {
				return fmt.Errorf("%v: %w", err, schema.ErrInvalidRequest)
			}
			translations := make([]schema.StatusTranslation, 0, len(statuses))
			for _, s := range statuses {
				t, err := a.pkg.Catalog.Translate(cmd.Context(), s, a.env.Language)
				if err != nil {
					return err
				}
				translations = append(translations, t)
			}
			return a.print(translations)
		},
	}

	var language string
	translate := &cobra.Command{
		Use:   "translate <status>",
		Short: "Show the name and description of a status code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := schema.ParseStatus(args[0])
			if err != nil {
				return err
			}
			if language == "" {
				language = a.env.Language
			}
			t, err := a.pkg.Catalog.Translate(cmd.Context(), status, language)
			if err != nil {
				return err
			}
			return a.print(t)
		},
	}
	translate.Flags().StringVar(&language, "language", "", "Language to translate to, defaults to PKGDB_LANGUAGE")

	load := &cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Import status translations from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening translation file: %w", err)
			}
			defer file.Close()

			n, err := a.pkg.Catalog.LoadTranslations(cmd.Context(), file)
			if err != nil {
				return err
			}
			return a.print(map[string]int{"loaded": n})
		},
	}

	addLanguage := &cobra.Command{
		Use:   "add-language <short name> <name>",
		Short: "Register a language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := schema.Language{ShortName: args[0], Name: args[1]}
			if err := a.pkg.Catalog.AddLanguage(cmd.Context(), lang); err != nil {
				return err
			}
			return a.print(lang)
		},
	}

	languages := &cobra.Command{
		Use:   "languages",
		Short: "List the registered languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := a.pkg.Catalog.Languages(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(langs)
		},
	}

	cmd.AddCommand(list, translate, load, addLanguage, languages)
	return cmd
}

// newSetStatusCmd builds the "status" subcommand shared by every entity.
func newSetStatusCmd(a *app, what string, set func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error)) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a " + what + " to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUUID(what, args[0])
			if err != nil {
				return err
			}
			status, err := schema.ParseStatus(args[1])
			if err != nil {
				return err
			}
			var result schema.Status
			err = a.retry(cmd.Context(), func() error {
				result, err = set(cmd, id, status, reason)
				return err
			})
			if err != nil {
				return err
			}
			return a.statusResult(cmd, id, result)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the log")
	return cmd
}

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "collection", Short: "Manage collections and branches"}

	var req services.CreateBranchRequest
	var status, parent string

	addCollectionFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&req.Name, "name", "", "Collection name")
		c.Flags().StringVar(&req.Version, "version", "", "Collection version")
		c.Flags().StringVar(&status, "status", "", "Initial status")
		c.Flags().Int64Var(&req.Owner, "owner", 0, "Owner user id")
		c.Flags().StringVar(&req.Summary, "summary", "", "Summary")
		c.Flags().StringVar(&req.Description, "description", "", "Description")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Status, err = parseStatusArg(status); err != nil {
				return err
			}
			collection, err := a.pkg.Collections.Create(cmd.Context(), a.env.Actor, req.CreateCollectionRequest)
			if err != nil {
				return err
			}
			return a.print(collection)
		},
	}
	addCollectionFlags(create)

	branch := &cobra.Command{
		Use:   "branch",
		Short: "Create a branch of an existing collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Status, err = parseStatusArg(status); err != nil {
				return err
			}
			if req.ParentId, err = utils.ParseUUID("parent", parent); err != nil {
				return err
			}
			collection, err := a.pkg.Collections.CreateBranch(cmd.Context(), a.env.Actor, req)
			if err != nil {
				return err
			}
			return a.print(collection)
		},
	}
	addCollectionFlags(branch)
	branch.Flags().StringVar(&parent, "parent", "", "Parent collection id")
	branch.Flags().StringVar(&req.BranchName, "branch-name", "", "Branch name")
	branch.Flags().StringVar(&req.DistTag, "disttag", "", "Dist tag")

	reparent := &cobra.Command{
		Use:   "reparent <branch id> <parent id>",
		Short: "Move a branch under another collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchId, err := utils.ParseUUID("branch", args[0])
			if err != nil {
				return err
			}
			parentId, err := utils.ParseUUID("parent", args[1])
			if err != nil {
				return err
			}
			if err := a.retry(cmd.Context(), func() error {
				return a.pkg.Collections.Reparent(cmd.Context(), branchId, parentId)
			}); err != nil {
				return err
			}
			chain, err := a.pkg.Collections.Ancestors(cmd.Context(), branchId)
			if err != nil {
				return err
			}
			return a.print(chain)
		},
	}

	ancestors := &cobra.Command{
		Use:   "ancestors <id>",
		Short: "List the parents of a collection, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUUID("collection", args[0])
			if err != nil {
				return err
			}
			chain, err := a.pkg.Collections.Ancestors(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(chain)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUUID("collection", args[0])
			if err != nil {
				return err
			}
			collection, err := a.pkg.Collections.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(collection)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections, err := a.pkg.Collections.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(collections)
		},
	}

	setStatus := newSetStatusCmd(a, "collection", func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
		c, err := a.pkg.Collections.SetStatus(cmd.Context(), a.env.Actor, id, status, reason)
		return c.StatusCode, err
	})

	cmd.AddCommand(create, branch, reparent, ancestors, show, list, setStatus)
	return cmd
}

type packageOutput struct {
	schema.Package
	Purl string `json:"purl"`
}

func newPackageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "package", Short: "Manage packages"}

	var req services.CreatePackageRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Request a new package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.pkg.Packages.Create(cmd.Context(), a.env.Actor, req)
			if err != nil {
				return err
			}
			return a.print(packageOutput{Package: pkg, Purl: pkg.PackageURL()})
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "Package name")
	create.Flags().StringVar(&req.Summary, "summary", "", "Summary")
	create.Flags().StringVar(&req.Description, "description", "", "Description")
	create.Flags().StringVar(&req.UpstreamUrl, "upstream-url", "", "Upstream url")
	create.Flags().StringVar(&req.ReviewUrl, "review-url", "", "Review request url")

	show := &cobra.Command{
		Use:   "show <id or name>",
		Short: "Show a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pkg schema.Package
			var err error
			if id, parseErr := uuid.Parse(args[0]); parseErr == nil {
				pkg, err = a.pkg.Packages.Get(cmd.Context(), id)
			} else {
				pkg, err = a.pkg.Packages.GetByName(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return a.print(packageOutput{Package: pkg, Purl: pkg.PackageURL()})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			packages, err := a.pkg.Packages.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(packages)
		},
	}

	var language string
	tag := &cobra.Command{
		Use:   "tag <id> <tag>",
		Short: "Tag a package",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUUID("package", args[0])
			if err != nil {
				return err
			}
			t, err := a.pkg.Packages.AddTag(cmd.Context(), id, args[1], language)
			if err != nil {
				return err
			}
			return a.print(t)
		},
	}
	tag.Flags().StringVar(&language, "language", schema.DefaultLanguage, "Language of the tag")

	setStatus := newSetStatusCmd(a, "package", func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
		p, err := a.pkg.Packages.SetStatus(cmd.Context(), a.env.Actor, id, status, reason)
		return p.StatusCode, err
	})

	cmd.AddCommand(create, show, list, tag, setStatus)
	return cmd
}

func newListingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "listing", Short: "Manage package listings in collections"}

	var pkgArg, collectionArg string
	var owner, qaContact int64

	create := &cobra.Command{
		Use:   "create",
		Short: "Request a package in a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.CreateListingRequest{Owner: owner}
			var err error
			if req.PackageId, err = utils.ParseUUID("package", pkgArg); err != nil {
				return err
			}
			if req.CollectionId, err = utils.ParseUUID("collection", collectionArg); err != nil {
				return err
			}
			if cmd.Flags().Changed("qa-contact") {
				req.QaContact = &qaContact
			}
			listing, err := a.pkg.Listings.Create(cmd.Context(), a.env.Actor, req)
			if err != nil {
				return err
			}
			return a.print(listing)
		},
	}
	create.Flags().StringVar(&pkgArg, "package", "", "Package id")
	create.Flags().StringVar(&collectionArg, "collection", "", "Collection id")
	create.Flags().Int64Var(&owner, "owner", 0, "Owner user id")
	create.Flags().Int64Var(&qaContact, "qa-contact", 0, "QA contact user id")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			listing, err := a.pkg.Listings.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.print(listing)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the listings of a package or a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var listings []schema.PackageListing
			switch {
			case pkgArg != "":
				id, err := utils.ParseUUID("package", pkgArg)
				if err != nil {
					return err
				}
				if listings, err = a.pkg.Listings.ListForPackage(cmd.Context(), id); err != nil {
					return err
				}
			case collectionArg != "":
				id, err := utils.ParseUUID("collection", collectionArg)
				if err != nil {
					return err
				}
				if listings, err = a.pkg.Listings.ListForCollection(cmd.Context(), id); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --package or --collection must be specified: %w", schema.ErrInvalidRequest)
			}
			return a.print(listings)
		},
	}
	list.Flags().StringVar(&pkgArg, "package", "", "Package id")
	list.Flags().StringVar(&collectionArg, "collection", "", "Collection id")

	setStatus := newSetStatusCmd(a, "listing", func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
		l, err := a.pkg.Listings.SetStatus(cmd.Context(), a.env.Actor, id, status, reason)
		return l.StatusCode, err
	})

	cmd.AddCommand(create, show, list, setStatus)
	return cmd
}

type versionOutput struct {
	schema.PackageVersion
	EVR  string `json:"evr"`
	Purl string `json:"purl,omitempty"`
}

func newVersionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "version", Short: "Manage package versions and their comments"}

	create := &cobra.Command{
		Use:   "create <listing id> <[epoch:]version-release>",
		Short: "Add a version to a listing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingId, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			version, err := a.pkg.Versions.Create(cmd.Context(), a.env.Actor, services.CreateVersionRequest{ListingId: listingId, EVR: args[1]})
			if err != nil {
				return err
			}
			purl, err := a.pkg.Versions.PackageURL(cmd.Context(), version.Id)
			if err != nil {
				return err
			}
			return a.print(versionOutput{PackageVersion: version, EVR: version.EVR().String(), Purl: purl})
		},
	}

	list := &cobra.Command{
		Use:   "list <listing id>",
		Short: "List the versions of a listing in EVR order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingId, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			versions, err := a.pkg.Versions.ListForListing(cmd.Context(), listingId)
			if err != nil {
				return err
			}
			out := make([]versionOutput, 0, len(versions))
			for _, v := range versions {
				out = append(out, versionOutput{PackageVersion: v, EVR: v.EVR().String()})
			}
			return a.print(out)
		},
	}

	latest := &cobra.Command{
		Use:   "latest <listing id>",
		Short: "Show the latest approved version of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingId, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			v, err := a.pkg.Versions.LatestApproved(cmd.Context(), listingId)
			if err != nil {
				return err
			}
			purl, err := a.pkg.Versions.PackageURL(cmd.Context(), v.Id)
			if err != nil {
				return err
			}
			return a.print(versionOutput{PackageVersion: v, EVR: v.EVR().String(), Purl: purl})
		},
	}

	var commentLanguage string
	var published bool
	comment := &cobra.Command{
		Use:   "comment <version id> <text>",
		Short: "Comment on a version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionId, err := utils.ParseUUID("version", args[0])
			if err != nil {
				return err
			}
			c, err := a.pkg.Comments.Add(cmd.Context(), services.AddCommentRequest{
				VersionId: versionId,
				Author:    a.env.Actor,
				Language:  commentLanguage,
				Body:      args[1],
				Published: published,
			})
			if err != nil {
				return err
			}
			return a.print(c)
		},
	}
	comment.Flags().StringVar(&commentLanguage, "language", schema.DefaultLanguage, "Language of the comment")
	comment.Flags().BoolVar(&published, "published", false, "Publish the comment")

	var publishedOnly bool
	comments := &cobra.Command{
		Use:   "comments <version id>",
		Short: "List the comments on a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionId, err := utils.ParseUUID("version", args[0])
			if err != nil {
				return err
			}
			cs, err := a.pkg.Comments.List(cmd.Context(), versionId, publishedOnly)
			if err != nil {
				return err
			}
			return a.print(cs)
		},
	}
	comments.Flags().BoolVar(&publishedOnly, "published-only", false, "Only list published comments")

	setStatus := newSetStatusCmd(a, "version", func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
		v, err := a.pkg.Versions.SetStatus(cmd.Context(), a.env.Actor, id, status, reason)
		return v.StatusCode, err
	})

	cmd.AddCommand(create, list, latest, comment, comments, setStatus)
	return cmd
}

func newAclCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "acl", Short: "Manage watch and permission records on listings"}

	var kind, role, status, listingArg, reason string
	var subjectId int64

	subject := func() services.Subject {
		return services.Subject{Kind: schema.SubjectKind(kind), Id: subjectId}
	}
	addSubjectFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&kind, "kind", string(schema.PersonSubject), "Subject kind, person or group")
		c.Flags().Int64Var(&subjectId, "subject", 0, "User or group id")
	}

	grant := &cobra.Command{
		Use:   "grant <listing id>",
		Short: "Grant a role on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingId, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			initial, err := parseStatusArg(status)
			if err != nil {
				return err
			}
			var aclId uuid.UUID
			err = a.retry(cmd.Context(), func() error {
				aclId, err = a.pkg.Acls.Grant(cmd.Context(), a.env.Actor, services.GrantRequest{
					ListingId: listingId, Subject: subject(), Role: schema.Role(role), Status: initial,
				})
				return err
			})
			if err != nil {
				return err
			}
			return a.print(map[string]uuid.UUID{"acl_id": aclId})
		},
	}
	addSubjectFlags(grant)
	grant.Flags().StringVar(&role, "role", string(schema.Watcher), "Role, watcher or owner")
	grant.Flags().StringVar(&status, "status", "", "Initial status, awaitingreview or approved")

	revoke := &cobra.Command{
		Use:   "revoke <acl id>",
		Short: "Revoke an acl",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aclId, err := utils.ParseUUID("acl", args[0])
			if err != nil {
				return err
			}
			var result schema.Status
			err = a.retry(cmd.Context(), func() error {
				result, err = a.pkg.Acls.Revoke(cmd.Context(), a.env.Actor, schema.SubjectKind(kind), aclId, reason)
				return err
			})
			if err != nil {
				return err
			}
			return a.statusResult(cmd, aclId, result)
		},
	}
	revoke.Flags().StringVar(&kind, "kind", string(schema.PersonSubject), "Subject kind, person or group")
	revoke.Flags().StringVar(&reason, "reason", "", "Reason recorded in the log")

	setStatus := newSetStatusCmd(a, "acl", func(cmd *cobra.Command, id uuid.UUID, status schema.Status, reason string) (schema.Status, error) {
		return a.pkg.Acls.SetStatus(cmd.Context(), a.env.Actor, schema.SubjectKind(kind), id, status, reason)
	})
	setStatus.Flags().StringVar(&kind, "kind", string(schema.PersonSubject), "Subject kind, person or group")

	check := &cobra.Command{
		Use:   "check <listing id>",
		Short: "Check whether a subject holds a role on a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listingId, err := utils.ParseUUID("listing", args[0])
			if err != nil {
				return err
			}
			ok, err := a.pkg.Acls.CheckPermission(cmd.Context(), listingId, subject(), schema.Role(role))
			if err != nil {
				return err
			}
			return a.print(map[string]bool{"allowed": ok})
		},
	}
	addSubjectFlags(check)
	check.Flags().StringVar(&role, "role", string(schema.Watcher), "Required role")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the acls of a listing or a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listingArg != "" {
				listingId, err := utils.ParseUUID("listing", listingArg)
				if err != nil {
					return err
				}
				acls, err := a.pkg.Acls.ListForListing(cmd.Context(), listingId)
				if err != nil {
					return err
				}
				return a.print(acls)
			}
			acls, err := a.pkg.Acls.ListForSubject(cmd.Context(), subject())
			if err != nil {
				return err
			}
			return a.print(acls)
		},
	}
	addSubjectFlags(list)
	list.Flags().StringVar(&listingArg, "listing", "", "Listing id")

	cmd.AddCommand(grant, revoke, setStatus, check, list)
	return cmd
}

func newLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Read the audit log"}

	var kinds []string
	var target, actor, since, until string
	var pageSize int

	query := &cobra.Command{
		Use:   "query",
		Short: "List log entries in change time order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter auditlog.Filter
			for _, k := range kinds {
				filter.Kinds = append(filter.Kinds, schema.LogKind(k))
			}
			if target != "" {
				id, err := utils.ParseUUID("target", target)
				if err != nil {
					return err
				}
				filter.TargetId = &id
			}
			if actor != "" {
				userId, err := utils.ParseInt64("actor", actor)
				if err != nil {
					return err
				}
				filter.UserId = &userId
			}
			var err error
			if filter.Since, err = parseTimeArg("since", since); err != nil {
				return err
			}
			if filter.Until, err = parseTimeArg("until", until); err != nil {
				return err
			}

			entries, err := a.pkg.Log.Query(filter, auditlog.PageSize(pageSize)).Collect(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(entries)
		},
	}
	query.Flags().StringSliceVar(&kinds, "kind", nil, "Restrict to log kinds")
	query.Flags().StringVar(&target, "target", "", "Restrict to one entity id")
	query.Flags().StringVar(&actor, "actor", "", "Restrict to one user id")
	query.Flags().StringVar(&since, "since", "", "Earliest change time, RFC3339")
	query.Flags().StringVar(&until, "until", "", "Latest change time (exclusive), RFC3339")
	query.Flags().IntVar(&pageSize, "page-size", auditlog.DefaultPageSize, "Entries fetched per query")

	show := &cobra.Command{
		Use:   "show <log id>",
		Short: "Show a log entry with its kind specific record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logId, err := utils.ParseInt64("log id", args[0])
			if err != nil {
				return err
			}
			entry, err := a.pkg.Log.Get(cmd.Context(), logId)
			if err != nil {
				return err
			}
			subtype, err := a.pkg.Log.LoadSubtype(cmd.Context(), entry)
			if err != nil {
				return err
			}
			return a.print(map[string]interface{}{"entry": entry, "record": subtype})
		},
	}

	cmd.AddCommand(query, show)
	return cmd
}
