package hook

// Core lifecycle hook names.
const (
	ArticleBeforeCreate  = "article.beforeCreate"
	ArticleAfterCreate   = "article.afterCreate"
	ArticleBeforeUpdate  = "article.beforeUpdate"
	ArticleAfterUpdate   = "article.afterUpdate"
	ArticleBeforeDelete  = "article.beforeDelete"
	ArticleAfterDelete   = "article.afterDelete"
	ArticleBeforePublish = "article.beforePublish"
	ArticleAfterPublish  = "article.afterPublish"
	UserBeforeLogin      = "user.beforeLogin"
	UserAfterLogin       = "user.afterLogin"
	UserAfterRegister    = "user.afterRegister"
	MediaBeforeUpload    = "media.beforeUpload"
	MediaAfterUpload     = "media.afterUpload"
	PageBeforeCreate     = "page.beforeCreate"
	PageAfterCreate      = "page.afterCreate"
	SystemInit           = "system.init"
	SystemShutdown       = "system.shutdown"

	// Fired by the module lifecycle itself, not seeded as system hooks.
	ModuleAfterEnable  = "module.afterEnable"
	ModuleAfterDisable = "module.afterDisable"
)

// SystemHooks returns the hooks seeded on a fresh install.
func SystemHooks() []Hook {
	return []Hook{
		{Name: ArticleBeforeCreate, Description: "Before article creation", IsSystem: true},
		{Name: ArticleAfterCreate, Description: "After article creation", IsSystem: true},
		{Name: ArticleBeforeUpdate, Description: "Before article update", IsSystem: true},
		{Name: ArticleAfterUpdate, Description: "After article update", IsSystem: true},
		{Name: ArticleBeforeDelete, Description: "Before article deletion", IsSystem: true},
		{Name: ArticleAfterDelete, Description: "After article deletion", IsSystem: true},
		{Name: ArticleBeforePublish, Description: "Before article publish", IsSystem: true},
		{Name: ArticleAfterPublish, Description: "After article publish", IsSystem: true},
		{Name: UserBeforeLogin, Description: "Before user login", IsSystem: true},
		{Name: UserAfterLogin, Description: "After user login", IsSystem: true},
		{Name: UserAfterRegister, Description: "After user registration", IsSystem: true},
		{Name: MediaBeforeUpload, Description: "Before media upload", IsSystem: true},
		{Name: MediaAfterUpload, Description: "After media upload", IsSystem: true},
		{Name: PageBeforeCreate, Description: "Before page creation", IsSystem: true},
		{Name: PageAfterCreate, Description: "After page creation", IsSystem: true},
		{Name: SystemInit, Description: "System initialization", IsSystem: true},
	}
}

// IsSystemHook reports whether name is one of the seeded system hooks.
func IsSystemHook(name string) bool {
	for _, h := range SystemHooks() {
		if h.Name == name {
			return true
		}
	}
	return false
}
